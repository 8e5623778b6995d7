package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"sentifeedback/internal/auth"
	"sentifeedback/internal/ratelimiter"
	"sentifeedback/internal/refcode"
	"sentifeedback/internal/store"

	"go.uber.org/zap"
)

// fakeData backs the in-memory Storage used by handler tests.
type fakeData struct {
	mu            sync.Mutex
	institutions  []store.Institution
	accounts      []*store.Account
	events        []store.Event
	feedbacks     []store.Feedback
	nextAccountID int64
}

func (d *fakeData) institutionByID(id int64) *store.Institution {
	for i := range d.institutions {
		if d.institutions[i].ID == id {
			return &d.institutions[i]
		}
	}
	return nil
}

type fakeInstitutions struct{ d *fakeData }

func (s *fakeInstitutions) List(_ context.Context) ([]store.Institution, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	return append([]store.Institution(nil), s.d.institutions...), nil
}

func (s *fakeInstitutions) GetByID(_ context.Context, id int64) (*store.Institution, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if inst := s.d.institutionByID(id); inst != nil {
		out := *inst
		return &out, nil
	}
	return nil, store.ErrNotFound
}

type fakeAccounts struct{ d *fakeData }

func (s *fakeAccounts) Create(_ context.Context, account *store.Account) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	for _, existing := range s.d.accounts {
		if existing.Username == account.Username {
			return store.ErrDuplicateUsername
		}
	}
	account.ID = s.d.nextAccountID
	s.d.nextAccountID++
	account.CreatedAt = time.Now().UTC()
	if inst := s.d.institutionByID(account.InstitutionID); inst != nil {
		account.InstitutionName = inst.Name
		account.InstitutionKind = inst.Kind
	}
	stored := *account
	s.d.accounts = append(s.d.accounts, &stored)
	return nil
}

func (s *fakeAccounts) get(match func(*store.Account) bool) (*store.Account, error) {
	for _, account := range s.d.accounts {
		if match(account) {
			out := *account
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *fakeAccounts) GetByID(_ context.Context, id int64) (*store.Account, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	return s.get(func(a *store.Account) bool { return a.ID == id })
}

func (s *fakeAccounts) GetByUsername(_ context.Context, username string) (*store.Account, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	return s.get(func(a *store.Account) bool { return a.Username == username })
}

func (s *fakeAccounts) update(id int64, apply func(*store.Account)) error {
	for _, account := range s.d.accounts {
		if account.ID == id {
			apply(account)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *fakeAccounts) UpdatePassword(_ context.Context, id int64, hash []byte) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	return s.update(id, func(a *store.Account) { a.Password.SetHash(hash) })
}

func (s *fakeAccounts) SaveRefreshToken(_ context.Context, id int64, token string) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	return s.update(id, func(a *store.Account) { a.RefreshToken = token })
}

func (s *fakeAccounts) GetRefreshToken(_ context.Context, id int64) (string, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	account, err := s.get(func(a *store.Account) bool { return a.ID == id })
	if err != nil {
		return "", err
	}
	return account.RefreshToken, nil
}

func (s *fakeAccounts) DeleteRefreshToken(_ context.Context, id int64) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	return s.update(id, func(a *store.Account) { a.RefreshToken = "" })
}

func (s *fakeAccounts) SetResetCode(_ context.Context, id int64, codeHash string, expires time.Time) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	return s.update(id, func(a *store.Account) {
		a.ResetCodeHash = codeHash
		a.ResetCodeExpires = expires
		a.ResetVerified = false
	})
}

func (s *fakeAccounts) MarkResetVerified(_ context.Context, id int64) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	return s.update(id, func(a *store.Account) { a.ResetVerified = true })
}

func (s *fakeAccounts) ClearReset(_ context.Context, id int64) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	return s.update(id, func(a *store.Account) {
		a.ResetCodeHash = ""
		a.ResetCodeExpires = time.Time{}
		a.ResetVerified = false
	})
}

type fakeEvents struct{ d *fakeData }

func (s *fakeEvents) GetByID(_ context.Context, id int64) (*store.Event, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	for _, event := range s.d.events {
		if event.ID == id {
			out := event
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *fakeEvents) ListByInstitution(_ context.Context, institutionID int64, kind string) ([]store.Event, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	var events []store.Event
	for _, event := range s.d.events {
		if event.InstitutionID == institutionID && (kind == "" || event.Kind == kind) {
			events = append(events, event)
		}
	}
	return events, nil
}

type fakeFeedbacks struct{ d *fakeData }

func (s *fakeFeedbacks) Create(_ context.Context, feedback *store.Feedback) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	s.d.feedbacks = append(s.d.feedbacks, *feedback)
	return nil
}

func (s *fakeFeedbacks) ListByUser(_ context.Context, userID int64, limit, offset int) ([]store.Feedback, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	var mine []store.Feedback
	for _, f := range s.d.feedbacks {
		if f.UserID == userID {
			mine = append(mine, f)
		}
	}
	// newest first
	for i, j := 0, len(mine)-1; i < j; i, j = i+1, j-1 {
		mine[i], mine[j] = mine[j], mine[i]
	}
	if offset >= len(mine) {
		return nil, nil
	}
	mine = mine[offset:]
	if len(mine) > limit {
		mine = mine[:limit]
	}
	return mine, nil
}

func (s *fakeFeedbacks) CountByUser(_ context.Context, userID int64) (int, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	var total int
	for _, f := range s.d.feedbacks {
		if f.UserID == userID {
			total++
		}
	}
	return total, nil
}

func (s *fakeFeedbacks) ListByInstitution(_ context.Context, institutionID int64) ([]store.Feedback, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	eventInstitution := make(map[int64]int64, len(s.d.events))
	for _, event := range s.d.events {
		eventInstitution[event.ID] = event.InstitutionID
	}
	var out []store.Feedback
	for _, f := range s.d.feedbacks {
		if eventInstitution[f.EventID] == institutionID {
			out = append(out, f)
		}
	}
	return out, nil
}

// fakeMailer records sends instead of talking SMTP.
type fakeMailer struct {
	mu    sync.Mutex
	sends []fakeSend
}

type fakeSend struct {
	template string
	email    string
	data     any
}

func (m *fakeMailer) Send(templateFile, _, email string, data any) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sends = append(m.sends, fakeSend{template: templateFile, email: email, data: data})
	return http.StatusOK, nil
}

func (m *fakeMailer) lastCode(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sends) == 0 {
		t.Fatal("no email was sent")
	}
	vars, ok := m.sends[len(m.sends)-1].data.(struct {
		Username  string
		Code      string
		ExpiresIn string
	})
	if !ok {
		t.Fatalf("unexpected template data %T", m.sends[len(m.sends)-1].data)
	}
	return vars.Code
}

func mustSetPassword(t *testing.T, account *store.Account, plaintext string) {
	t.Helper()
	if err := account.Password.Set(plaintext); err != nil {
		t.Fatalf("set password: %v", err)
	}
}

func newTestApplication(t *testing.T) (*application, *fakeData, *fakeMailer) {
	t.Helper()

	data := &fakeData{
		nextAccountID: 100,
		institutions: []store.Institution{
			{ID: 1, Name: "Springfield High School", Kind: "school"},
			{ID: 3, Name: "State University", Kind: "college"},
		},
		events: []store.Event{
			{ID: 1, Name: "Annual Sports Day", InstitutionID: 1, Kind: "school"},
			{ID: 2, Name: "Science Fair", InstitutionID: 1, Kind: "school"},
			{ID: 3, Name: "College Fest", InstitutionID: 3, Kind: "college"},
		},
	}

	student := &store.Account{
		ID: 1, Username: "student1", FullName: "John Doe", Email: "john@example.com",
		MobileNumber: "1234567890", InstitutionID: 1,
		InstitutionName: "Springfield High School", InstitutionKind: "school", Role: "student",
	}
	mustSetPassword(t, student, "password")

	admin := &store.Account{
		ID: 2, Username: "admin1", FullName: "Admin User", Email: "admin@school.com",
		MobileNumber: "5555555555", InstitutionID: 1,
		InstitutionName: "Springfield High School", InstitutionKind: "school", Role: "admin",
	}
	mustSetPassword(t, admin, "admin123")

	data.accounts = []*store.Account{student, admin}

	mail := &fakeMailer{}

	refCodes, err := refcode.NewGenerator("test-salt")
	if err != nil {
		t.Fatalf("refcode generator: %v", err)
	}

	app := &application{
		config: config{
			env: "test",
			auth: authConfig{
				basic: basicConfig{user: "ops", pass: "ops"},
			},
			mail: mailConfig{codeExp: 15 * time.Minute},
			rateLimiter: ratelimiter.Config{
				RequestsPerTimeFrame: 1000,
				TimeFrame:            time.Minute,
				Enabled:              false,
			},
		},
		logger: zap.NewNop().Sugar(),
		store: store.Storage{
			Institutions: &fakeInstitutions{data},
			Accounts:     &fakeAccounts{data},
			Events:       &fakeEvents{data},
			Feedbacks:    &fakeFeedbacks{data},
		},
		mailer:        mail,
		authenticator: auth.NewJWTAuthenticator("test-secret", "test-refresh-secret", time.Hour, 24*time.Hour, "test", "test"),
		rateLimiter:   ratelimiter.NewFixedWindowLimiter(1000, time.Minute),
		refCodes:      refCodes,
	}

	return app, data, mail
}

func bearerToken(t *testing.T, app *application, accountID int64, role string) string {
	t.Helper()
	access, _, err := app.authenticator.GenerateTokens(accountID, role)
	if err != nil {
		t.Fatalf("generate tokens: %v", err)
	}
	return "Bearer " + access
}

func doJSON(t *testing.T, handler http.Handler, method, target, authorization string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Buffer
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewBuffer(encoded)
	} else {
		body = new(bytes.Buffer)
	}

	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func decodeData(t *testing.T, rr *httptest.ResponseRecorder, out any) {
	t.Helper()
	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, rr.Body.String())
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		t.Fatalf("decode data: %v (body %s)", err, rr.Body.String())
	}
}
