package telegram

import (
	"context"

	accountentity "github.com/ovaphlow/pitchfork/service-auth-telegram/internal/account/entity"
	"github.com/ovaphlow/pitchfork/service-auth-telegram/internal/session"
	sessionentity "github.com/ovaphlow/pitchfork/service-auth-telegram/internal/session/entity"
	userentity "github.com/ovaphlow/pitchfork/service-auth-telegram/internal/user/entity"
)

// Service runs the sign-in pipeline: verify, resolve, issue. It knows nothing
// about HTTP; handlers decide how to render the Result.
//
// User and account writes are not rolled back when session creation fails.
// The next sign-in finds the user and retries the session.
type Service struct {
	opts     Options
	resolver *Resolver
	issuer   *Issuer
}

func NewService(opts Options, users UserStore, accounts AccountStore, sessions SessionStore) (*Service, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Service{
		opts:     opts,
		resolver: NewResolver(users, accounts, opts.TempEmail),
		issuer:   NewIssuer(sessions),
	}, nil
}

type SignInRequest struct {
	Payload Payload
	// PresentedToken is the session token the caller already holds, if any.
	PresentedToken string
	Meta           session.Meta
}

type Result struct {
	User        *userentity.User
	Account     *accountentity.Account
	Session     *sessionentity.Session
	UserCreated bool
	NewSession  bool
}

// SignIn returns ErrInvalidSignature before touching any store when the
// payload was not signed for the configured bot.
func (s *Service) SignIn(ctx context.Context, req SignInRequest) (*Result, error) {
	if !Verify(s.opts.BotToken, req.Payload) {
		return nil, ErrInvalidSignature
	}
	res, err := s.resolver.Resolve(ctx, req.Payload)
	if err != nil {
		return nil, err
	}
	sess, fresh, err := s.issuer.Issue(ctx, res.User, req.PresentedToken, req.Meta)
	if err != nil {
		return nil, err
	}
	return &Result{
		User:        res.User,
		Account:     res.Account,
		Session:     sess,
		UserCreated: res.UserCreated,
		NewSession:  fresh,
	}, nil
}

// Redirect is the configured redirect override, empty when unset.
func (s *Service) Redirect() string { return s.opts.Redirect }
