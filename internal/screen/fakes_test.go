package screen

import (
	"context"

	"github.com/hitoshi/eduapp/internal/model"
	"github.com/hitoshi/eduapp/internal/session"
)

type fakeAuth struct {
	signInFn         func(ctx context.Context, email, password string) (session.Session, error)
	createAccountFn  func(ctx context.Context, email, password string) (session.Session, error)
	signOutFn        func(ctx context.Context) error
	changePasswordFn func(ctx context.Context, currentPassword, newPassword string) error

	signInCalls         int
	createAccountCalls  int
	changePasswordCalls int
}

func (f *fakeAuth) SignIn(ctx context.Context, email, password string) (session.Session, error) {
	f.signInCalls++
	if f.signInFn != nil {
		return f.signInFn(ctx, email, password)
	}
	return session.Authenticated("u1", email), nil
}

func (f *fakeAuth) CreateAccount(ctx context.Context, email, password string) (session.Session, error) {
	f.createAccountCalls++
	if f.createAccountFn != nil {
		return f.createAccountFn(ctx, email, password)
	}
	return session.Authenticated("u1", email), nil
}

func (f *fakeAuth) SignOut(ctx context.Context) error {
	if f.signOutFn != nil {
		return f.signOutFn(ctx)
	}
	return nil
}

func (f *fakeAuth) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	f.changePasswordCalls++
	if f.changePasswordFn != nil {
		return f.changePasswordFn(ctx, currentPassword, newPassword)
	}
	return nil
}

func (f *fakeAuth) Subscribe(l session.Listener) func() {
	l(session.Anonymous())
	return func() {}
}

func (f *fakeAuth) Current() session.Session { return session.Anonymous() }

type fakeDocs struct {
	getFn    func(ctx context.Context, collection, key string) (*model.Document, error)
	setFn    func(ctx context.Context, collection, key string, fields model.Fields) error
	updateFn func(ctx context.Context, collection, key string, fields model.Fields) error

	setCalls    int
	updateCalls int
}

func (f *fakeDocs) Get(ctx context.Context, collection, key string) (*model.Document, error) {
	if f.getFn != nil {
		return f.getFn(ctx, collection, key)
	}
	return nil, nil
}

func (f *fakeDocs) Set(ctx context.Context, collection, key string, fields model.Fields) error {
	f.setCalls++
	if f.setFn != nil {
		return f.setFn(ctx, collection, key, fields)
	}
	return nil
}

func (f *fakeDocs) Update(ctx context.Context, collection, key string, fields model.Fields) error {
	f.updateCalls++
	if f.updateFn != nil {
		return f.updateFn(ctx, collection, key, fields)
	}
	return nil
}
