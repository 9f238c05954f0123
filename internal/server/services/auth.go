// Package services contains server-side business logic. This file implements
// AuthService, which turns a verified wallet proof bundle into credentials
// for an account in the external account service, provisioning the account
// on first sign-in.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/walletauth/internal/common"
	"github.com/dmitrijs2005/walletauth/internal/dbx"
	"github.com/dmitrijs2005/walletauth/internal/logging"
	"github.com/dmitrijs2005/walletauth/internal/server/accounts"
	"github.com/dmitrijs2005/walletauth/internal/server/config"
	"github.com/dmitrijs2005/walletauth/internal/server/models"
	"github.com/dmitrijs2005/walletauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/walletauth/internal/server/rola"
)

// ChallengeStore issues and checks one-time challenges.
type ChallengeStore interface {
	Create(ctx context.Context) (string, error)
	Verify(ctx context.Context, token string) (bool, error)
	Consume(ctx context.Context, tokens ...string) error
	Ping(ctx context.Context) error
}

// ProofVerifier checks the signatures of a whole bundle.
type ProofVerifier interface {
	Verify(ctx context.Context, b *rola.Bundle) rola.Result
}

// AccountService is the external account service.
type AccountService interface {
	Create(ctx context.Context, in accounts.NewAccount) error
	Lookup(ctx context.Context, acct string) (*accounts.Account, error)
	Delete(ctx context.Context, id string) error
}

// UsernameDirectory answers whether an application username is taken.
type UsernameDirectory interface {
	UsernameExists(ctx context.Context, username string) (bool, error)
}

// CredentialVault encrypts generated passwords at rest.
type CredentialVault interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(stored string) (string, error)
}

type pinger interface {
	PingContext(ctx context.Context) error
}

// Flow tells which branch produced an Outcome.
type Flow string

const (
	FlowSignUp Flow = "SIGN_UP"
	FlowSignIn Flow = "SIGN_IN"
)

// Outcome is the credential pair handed back after a successful verification.
type Outcome struct {
	Flow     Flow
	Username string
	Email    string
	Password string
}

// AuthDeps groups the collaborators of an AuthService.
type AuthDeps struct {
	DB          dbx.DBTX
	RepoManager repomanager.RepositoryManager
	Challenges  ChallengeStore
	Verifier    ProofVerifier
	Accounts    AccountService
	Usernames   UsernameDirectory
	Vault       CredentialVault
}

// AuthService drives challenge issuance and the verify / provision flow.
//
// Within one Verify call the order is fixed: challenges, then signatures,
// then any account service or repository access. Nothing external is
// mutated for a bundle that fails the first two steps.
type AuthService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	challenges  ChallengeStore
	verifier    ProofVerifier
	accounts    AccountService
	usernames   UsernameDirectory
	vault       CredentialVault
	logger      logging.Logger

	singleUse bool
	timeout   time.Duration
}

// NewAuthService wires the service from its collaborators and server config.
func NewAuthService(d AuthDeps, cfg *config.Config, l logging.Logger) *AuthService {
	return &AuthService{
		db:          d.DB,
		repomanager: d.RepoManager,
		challenges:  d.Challenges,
		verifier:    d.Verifier,
		accounts:    d.Accounts,
		usernames:   d.Usernames,
		vault:       d.Vault,
		logger:      l.With("module", "auth_service"),
		singleUse:   cfg.SingleUseChallenges,
		timeout:     cfg.RequestTimeout,
	}
}

func (s *AuthService) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// CreateChallenge issues a fresh challenge token.
func (s *AuthService) CreateChallenge(ctx context.Context) (string, error) {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	token, err := s.challenges.Create(ctx)
	if err != nil {
		s.logger.Error(ctx, "challenge not issued", "error", err)
		return "", err
	}
	s.logger.Debug(ctx, "challenge issued")
	return token, nil
}

// Verify checks b and returns the credentials of the persona's account,
// creating the account first when its username is not yet taken.
// acceptLanguage is the raw Accept-Language header used for the locale of
// new accounts.
func (s *AuthService) Verify(ctx context.Context, b *rola.Bundle, acceptLanguage string) (*Outcome, error) {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	if b == nil {
		return nil, common.ErrMalformedBundle
	}
	if err := b.Validate(); err != nil {
		s.logger.Info(ctx, "bundle rejected", "reason", err)
		return nil, err
	}

	challenges := b.Challenges()
	if err := s.checkChallenges(ctx, challenges); err != nil {
		return nil, err
	}

	if res := s.verifier.Verify(ctx, b); !res.OK() {
		err := res.Err()
		s.logger.Info(ctx, "bundle rejected", "kind", res.Kind().String(), "reason", err)
		return nil, err
	}

	if s.singleUse {
		if err := s.challenges.Consume(ctx, challenges...); err != nil {
			s.logger.Warn(ctx, "challenge consumed concurrently", "error", err)
			return nil, err
		}
	}

	persona := b.Persona.IdentityAddress
	username := b.Persona.Label
	email := b.Email()

	exists, err := s.usernames.UsernameExists(ctx, username)
	if err != nil {
		s.logger.Error(ctx, "username lookup failed", "username", username, "error", err)
		return nil, fmt.Errorf("%w: username lookup: %v", common.ErrUnavailable, err)
	}

	if !exists {
		return s.signUp(ctx, persona, username, email, acceptLanguage)
	}
	return s.signIn(ctx, persona)
}

// checkChallenges verifies every distinct challenge, stopping at the first
// one that is not valid.
func (s *AuthService) checkChallenges(ctx context.Context, challenges []string) error {
	for _, c := range challenges {
		ok, err := s.challenges.Verify(ctx, c)
		if err != nil {
			s.logger.Error(ctx, "challenge check failed", "error", err)
			return err
		}
		if !ok {
			s.logger.Info(ctx, "bundle rejected", "reason", "challenge invalid")
			return common.ErrChallengeInvalid
		}
	}
	return nil
}

func (s *AuthService) signUp(ctx context.Context, persona, username, email, acceptLanguage string) (*Outcome, error) {
	password, err := common.MakeRandHexString(common.PasswordByteLength)
	if err != nil {
		return nil, fmt.Errorf("%w: generate password: %v", common.ErrorInternal, err)
	}
	// encrypt before anything external exists, so a vault failure needs no rollback
	encrypted, err := s.vault.Encrypt(password)
	if err != nil {
		return nil, fmt.Errorf("%w: encrypt password: %v", common.ErrorInternal, err)
	}

	locale := Locale(acceptLanguage)
	s.logger.Info(ctx, "creating account", "username", username, "locale", locale)

	err = s.accounts.Create(ctx, accounts.NewAccount{
		Username:  username,
		Password:  password,
		Email:     email,
		Agreement: true,
		Locale:    locale,
	})
	if err != nil {
		s.logger.Warn(ctx, "account creation failed", "username", username,
			"duplicate", errors.Is(err, common.ErrDuplicateUsername), "error", err)
		if !errors.Is(err, common.ErrAccountCreationFailed) {
			err = fmt.Errorf("%w: %w", common.ErrAccountCreationFailed, err)
		}
		return nil, err
	}

	rec := &models.IdentityRecord{Persona: persona, UserName: username, Email: email, Password: encrypted}
	if err := s.repomanager.Identities(s.db).Create(ctx, rec); err != nil {
		s.logger.Error(ctx, "identity record not written", "username", username, "error", err)
		s.compensate(ctx, username)
		return nil, fmt.Errorf("%w: %v", common.ErrRecordWriteFailed, err)
	}

	s.logger.Info(ctx, "account provisioned", "username", username)
	return &Outcome{Flow: FlowSignUp, Username: username, Email: email, Password: password}, nil
}

// compensate deletes the account created for username. It runs once, on a
// context detached from the request deadline, and only logs its failures.
func (s *AuthService) compensate(ctx context.Context, username string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.compensationTimeout())
	defer cancel()

	acc, err := s.accounts.Lookup(ctx, username)
	if err != nil {
		s.logger.Error(ctx, "orphaned account: lookup for rollback failed",
			"username", username, "reconciliation", "manual", "error", err)
		return
	}
	if err := s.accounts.Delete(ctx, acc.ID); err != nil {
		s.logger.Error(ctx, "orphaned account: rollback delete failed",
			"username", username, "account_id", acc.ID, "reconciliation", "manual", "error", err)
		return
	}
	s.logger.Info(ctx, "account rolled back", "username", username, "account_id", acc.ID)
}

func (s *AuthService) compensationTimeout() time.Duration {
	if s.timeout > 0 {
		return s.timeout
	}
	return 10 * time.Second
}

func (s *AuthService) signIn(ctx context.Context, persona string) (*Outcome, error) {
	rec, err := s.repomanager.Identities(s.db).GetByPersona(ctx, persona)
	if errors.Is(err, common.ErrorNotFound) {
		s.logger.Error(ctx, "account exists without identity record", "persona", persona)
		return nil, common.ErrRecordMissingOnSignIn
	}
	if err != nil {
		s.logger.Error(ctx, "identity record read failed", "persona", persona, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	password, err := s.vault.Decrypt(rec.Password)
	if err != nil {
		s.logger.Error(ctx, "stored credential cannot be decrypted", "persona", persona, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	s.logger.Info(ctx, "signed in", "username", rec.UserName)
	return &Outcome{Flow: FlowSignIn, Username: rec.UserName, Email: rec.Email, Password: password}, nil
}

// Health checks the challenge cache and, when it supports pinging, the
// database.
func (s *AuthService) Health(ctx context.Context) error {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	var errs []error
	if err := s.challenges.Ping(ctx); err != nil {
		errs = append(errs, err)
	}
	if p, ok := s.db.(pinger); ok {
		if err := p.PingContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%w: database: %v", common.ErrUnavailable, err))
		}
	}
	return errors.Join(errs...)
}
