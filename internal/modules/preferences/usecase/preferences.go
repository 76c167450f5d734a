package usecase

import (
	"context"

	"worksmart/internal/modules/preferences/domain"
	prefsin "worksmart/internal/modules/preferences/port/in"
	prefsout "worksmart/internal/modules/preferences/port/out"
)

type Interactor struct {
	store prefsout.SettingsStore
}

func NewInteractor(store prefsout.SettingsStore) prefsin.Usecase {
	return &Interactor{store: store}
}

func (i *Interactor) Get(ctx context.Context) (domain.Settings, error) {
	settings, err := i.store.Load(ctx)
	if err != nil {
		return domain.Settings{}, err
	}
	if err := settings.Validate(); err != nil {
		return domain.Settings{}, err
	}
	return settings, nil
}

func (i *Interactor) Set(ctx context.Context, key, value string) (domain.Settings, error) {
	current, err := i.store.Load(ctx)
	if err != nil {
		return domain.Settings{}, err
	}
	next, err := current.Set(key, value)
	if err != nil {
		return domain.Settings{}, err
	}
	if err := i.store.Save(ctx, next); err != nil {
		return domain.Settings{}, err
	}
	return next, nil
}
