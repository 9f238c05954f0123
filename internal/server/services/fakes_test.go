package services

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"sync"

	"github.com/dmitrijs2005/walletauth/internal/common"
	"github.com/dmitrijs2005/walletauth/internal/dbx"
	"github.com/dmitrijs2005/walletauth/internal/server/accounts"
	"github.com/dmitrijs2005/walletauth/internal/server/models"
	"github.com/dmitrijs2005/walletauth/internal/server/repositories/identities"
	"github.com/dmitrijs2005/walletauth/internal/server/rola"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// --- challenge store ---

type fakeChallenges struct {
	mu          sync.Mutex
	valid       map[string]bool
	verifyCalls map[string]int
	consumed    []string
	createErr   error
	verifyErr   error
	consumeErr  error
	pingErr     error
	next        string
}

func newFakeChallenges(valid ...string) *fakeChallenges {
	f := &fakeChallenges{valid: map[string]bool{}, verifyCalls: map[string]int{}, next: "c-new"}
	for _, v := range valid {
		f.valid[v] = true
	}
	return f
}

func (f *fakeChallenges) Create(ctx context.Context) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.valid[f.next] = true
	return f.next, nil
}

func (f *fakeChallenges) Verify(ctx context.Context, token string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifyCalls[token]++
	if f.verifyErr != nil {
		return false, f.verifyErr
	}
	return f.valid[token], nil
}

func (f *fakeChallenges) Consume(ctx context.Context, tokens ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.consumeErr != nil {
		return f.consumeErr
	}
	missing := false
	for _, t := range tokens {
		if !f.valid[t] {
			missing = true
		}
		delete(f.valid, t)
		f.consumed = append(f.consumed, t)
	}
	if missing {
		return common.ErrChallengeInvalid
	}
	return nil
}

func (f *fakeChallenges) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeChallenges) totalVerifyCalls() int {
	n := 0
	for _, c := range f.verifyCalls {
		n += c
	}
	return n
}

// --- verifier ---

type fakeVerifier struct {
	result rola.Result
	calls  int
}

func (f *fakeVerifier) Verify(ctx context.Context, b *rola.Bundle) rola.Result {
	f.calls++
	return f.result
}

// --- account service ---

type fakeAccounts struct {
	existing    map[string]string // username -> id
	createErr   error
	lookupErr   error
	deleteErr   error
	created     []accounts.NewAccount
	deleted     []string
	lookupCalls int
	nextID      int
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{existing: map[string]string{}, nextID: 100}
}

func (f *fakeAccounts) Create(ctx context.Context, in accounts.NewAccount) error {
	f.created = append(f.created, in)
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.existing[in.Username]; ok {
		return errors.Join(common.ErrAccountCreationFailed, common.ErrDuplicateUsername)
	}
	f.nextID++
	f.existing[in.Username] = strconv.Itoa(f.nextID)
	return nil
}

func (f *fakeAccounts) Lookup(ctx context.Context, acct string) (*accounts.Account, error) {
	f.lookupCalls++
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	id, ok := f.existing[acct]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &accounts.Account{ID: id, Username: acct, Acct: acct}, nil
}

func (f *fakeAccounts) Delete(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for u, v := range f.existing {
		if v == id {
			delete(f.existing, u)
		}
	}
	return nil
}

func (f *fakeAccounts) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, ok := f.existing[username]
	return ok, nil
}

// --- identity repository ---

type fakeIdentities struct {
	records   map[string]models.IdentityRecord
	createErr error
	getErr    error
	creates   int
	gets      int
}

func newFakeIdentities() *fakeIdentities {
	return &fakeIdentities{records: map[string]models.IdentityRecord{}}
}

func (f *fakeIdentities) Create(ctx context.Context, rec *models.IdentityRecord) error {
	f.creates++
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.records[rec.Persona]; ok {
		return errors.New("db error: duplicate persona")
	}
	f.records[rec.Persona] = *rec
	return nil
}

func (f *fakeIdentities) GetByPersona(ctx context.Context, persona string) (*models.IdentityRecord, error) {
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	rec, ok := f.records[persona]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &rec, nil
}

func (f *fakeIdentities) UsernameExists(ctx context.Context, username string) (bool, error) {
	for _, r := range f.records {
		if r.UserName == username {
			return true, nil
		}
	}
	return false, nil
}

type fakeRepoManager struct {
	ids *fakeIdentities
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Identities(db dbx.DBTX) identities.Repository { return m.ids }

func modelsRecord(persona, username, password string) models.IdentityRecord {
	return models.IdentityRecord{Persona: persona, UserName: username, Email: username + "@example.com", Password: password}
}
