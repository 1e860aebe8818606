package viewmodel

import (
	"context"

	"murmur/internal/models"
)

// SettingsUseCases is what the settings screen needs.
type SettingsUseCases interface {
	IsDarkMode(ctx context.Context) (bool, error)
	SetDarkMode(ctx context.Context, enabled bool) error
}

type SettingsState struct {
	DarkMode bool
	Error    string
}

type SettingsViewModel struct {
	*Store[SettingsState]

	settings SettingsUseCases
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewSettingsViewModel(parent context.Context, settings SettingsUseCases) *SettingsViewModel {
	ctx, cancel := context.WithCancel(parent)
	vm := &SettingsViewModel{Store: NewStore(SettingsState{}), settings: settings, ctx: ctx, cancel: cancel}
	vm.Load()
	return vm
}

// Load reads the stored flag. A read failure leaves light mode on.
func (vm *SettingsViewModel) Load() {
	on, err := vm.settings.IsDarkMode(vm.ctx)
	vm.Update(func(s SettingsState) SettingsState {
		s.DarkMode = on && err == nil
		s.Error = models.UserMessage(err)
		return s
	})
}

func (vm *SettingsViewModel) SetDarkMode(enabled bool) error {
	if err := vm.settings.SetDarkMode(vm.ctx, enabled); err != nil {
		msg := models.UserMessage(err)
		vm.Update(func(s SettingsState) SettingsState { s.Error = msg; return s })
		return err
	}
	vm.Update(func(s SettingsState) SettingsState {
		s.DarkMode = enabled
		s.Error = ""
		return s
	})
	return nil
}

func (vm *SettingsViewModel) Close() { vm.cancel() }
