package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"jagx-bot/internal/pairing/domain"
	"jagx-bot/internal/pairing/repository"
	"jagx-bot/internal/security"
)

// memRepo implements repository.Repository in memory.
type memRepo struct {
	mu      sync.Mutex
	rec     *domain.Record
	qr      []byte
	loadErr error
	saves   int
}

func (m *memRepo) Load(context.Context) (*domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.rec == nil {
		return nil, nil
	}
	cp := *m.rec
	return &cp, nil
}

func (m *memRepo) Save(_ context.Context, r *domain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.rec = &cp
	m.saves++
	return nil
}

func (m *memRepo) LoadQR(context.Context) ([]byte, error) { return m.qr, nil }

func (m *memRepo) SaveQR(_ context.Context, png []byte) error {
	m.qr = png
	return nil
}

func (m *memRepo) HasQR(context.Context) (bool, error) { return m.qr != nil, nil }

type fakeEncoder struct {
	content string
	err     error
}

func (f *fakeEncoder) Encode(content string) ([]byte, error) {
	f.content = content
	if f.err != nil {
		return nil, f.err
	}
	return []byte("png:" + content), nil
}

type auditEntry struct {
	action, status, phone, metadata string
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (f *fakeAudit) LogEvent(_ context.Context, action, codeStatus, phone, metadata string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, auditEntry{action, codeStatus, phone, metadata})
}

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newTestAuthority(repo *memRepo, opts Options) (*Authority, *clock) {
	c := &clock{now: t0}
	opts.Now = c.Now
	return NewAuthority(repo, &fakeEncoder{}, opts), c
}

func TestIssue_CreatesRecordAndQR(t *testing.T) {
	repo := &memRepo{}
	enc := &fakeEncoder{}
	a := NewAuthority(repo, enc, Options{Now: func() time.Time { return t0 }})

	rec, created, err := a.Issue(context.Background())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !created {
		t.Error("first Issue should create a record")
	}
	if !domain.ValidCode("JagX", rec.Code) {
		t.Errorf("code %q does not have the JagX#### form", rec.Code)
	}
	if !rec.ExpiresAt.Equal(t0.Add(24 * time.Hour)) {
		t.Errorf("ExpiresAt = %v, want issuance + 24h", rec.ExpiresAt)
	}
	if rec.Paired || rec.UserPhone != "" {
		t.Error("new record should be unpaired")
	}
	if enc.content != "https://katabump.com/pair?code="+rec.Code {
		t.Errorf("QR content = %q", enc.content)
	}
	if repo.qr == nil {
		t.Error("QR image should be stored")
	}
}

func TestIssue_NeverOverwrites(t *testing.T) {
	testCases := []struct {
		name string
		rec  domain.Record
	}{
		{"issued", domain.Record{Code: "JagX1234", ExpiresAt: t0.Add(time.Hour)}},
		{"expired", domain.Record{Code: "JagX1234", ExpiresAt: t0.Add(-time.Hour)}},
		{"paired", domain.Record{Code: "JagX1234", ExpiresAt: t0.Add(time.Hour), Paired: true, UserPhone: "+1555"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			stored := tc.rec
			repo := &memRepo{rec: &stored}
			a, _ := newTestAuthority(repo, Options{})
			rec, created, err := a.Issue(context.Background())
			if err != nil {
				t.Fatalf("Issue: %v", err)
			}
			if created || repo.saves != 0 {
				t.Error("Issue must not write when a record exists")
			}
			if rec.Code != "JagX1234" {
				t.Errorf("code = %q, want existing", rec.Code)
			}
		})
	}
}

func TestIssue_CorruptRecordLeftInPlace(t *testing.T) {
	repo := &memRepo{loadErr: repository.ErrCorruptRecord}
	a, _ := newTestAuthority(repo, Options{})
	rec, created, err := a.Issue(context.Background())
	if err != nil || rec != nil || created {
		t.Fatalf("Issue = %v, %v, %v; want nil, false, nil", rec, created, err)
	}
	if repo.saves != 0 {
		t.Error("corrupt record must not be overwritten")
	}
}

func TestIssue_QRFailureIsNotFatal(t *testing.T) {
	repo := &memRepo{}
	a := NewAuthority(repo, &fakeEncoder{err: errors.New("encode failed")}, Options{})
	if _, created, err := a.Issue(context.Background()); err != nil || !created {
		t.Fatalf("Issue: created=%v err=%v", created, err)
	}
	if repo.qr != nil {
		t.Error("no QR should be stored after an encoder failure")
	}
}

func TestIssue_Idempotent(t *testing.T) {
	a, _ := newTestAuthority(&memRepo{}, Options{})
	first, _, err := a.Issue(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	second, created, err := a.Issue(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if created || second.Code != first.Code {
		t.Errorf("second Issue changed the record: %q -> %q", first.Code, second.Code)
	}
}

func TestDescribe(t *testing.T) {
	repo := &memRepo{}
	a, _ := newTestAuthority(repo, Options{})
	d, err := a.Describe(context.Background())
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if d.Present() || d.HasQR {
		t.Errorf("empty store should describe nothing, got %+v", d)
	}

	rec, _, err := a.Issue(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	d, err = a.Describe(context.Background())
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if d.Code != rec.Code || !d.ExpiresAt.Equal(rec.ExpiresAt) || !d.HasQR {
		t.Errorf("Describe = %+v, want code %q with QR", d, rec.Code)
	}
}

func TestDescribe_CorruptIsAbsent(t *testing.T) {
	a, _ := newTestAuthority(&memRepo{loadErr: repository.ErrCorruptRecord}, Options{})
	d, err := a.Describe(context.Background())
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if d.Present() {
		t.Error("corrupt record should describe as absent")
	}
}

func TestVerify(t *testing.T) {
	const code = "JagX4821"
	expires := t0.Add(24 * time.Hour)

	testCases := []struct {
		name    string
		stored  *domain.Record
		at      time.Time
		code    string
		single  bool
		wantErr error
	}{
		{"no record", nil, t0, code, false, domain.ErrNotFound},
		{"success", &domain.Record{Code: code, ExpiresAt: expires}, t0.Add(10 * time.Millisecond), code, false, nil},
		{"at expiry instant", &domain.Record{Code: code, ExpiresAt: expires}, expires, code, false, nil},
		{"one ms past expiry", &domain.Record{Code: code, ExpiresAt: expires}, expires.Add(time.Millisecond), code, false, domain.ErrExpired},
		{"expired beats mismatch", &domain.Record{Code: code, ExpiresAt: expires}, expires.Add(time.Hour), "JagX0000", false, domain.ErrExpired},
		{"mismatch", &domain.Record{Code: code, ExpiresAt: expires}, t0, "JagX1111", false, domain.ErrMismatch},
		{"empty code", &domain.Record{Code: code, ExpiresAt: expires}, t0, "", false, domain.ErrMismatch},
		{"repeat allowed by default", &domain.Record{Code: code, ExpiresAt: expires, Paired: true, UserPhone: "+1"}, t0, code, false, nil},
		{"repeat rejected in single-use", &domain.Record{Code: code, ExpiresAt: expires, Paired: true, UserPhone: "+1"}, t0, code, true, domain.ErrAlreadyPaired},
		{"expired beats already paired", &domain.Record{Code: code, ExpiresAt: expires, Paired: true}, expires.Add(time.Second), code, true, domain.ErrExpired},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &memRepo{rec: tc.stored}
			audit := &fakeAudit{}
			a, c := newTestAuthority(repo, Options{SingleUse: tc.single, Audit: audit})
			c.now = tc.at

			res, err := a.Verify(context.Background(), tc.code, "+1555")
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Verify err = %v, want %v", err, tc.wantErr)
			}
			if len(audit.entries) != 1 {
				t.Errorf("audit entries = %d, want 1", len(audit.entries))
			}
			if tc.wantErr != nil {
				if res != nil {
					t.Error("result should be nil on error")
				}
				return
			}
			if res.UserPhone != "+1555" {
				t.Errorf("UserPhone = %q", res.UserPhone)
			}
			if !repo.rec.Paired || repo.rec.UserPhone != "+1555" {
				t.Errorf("stored record not bound: %+v", repo.rec)
			}
			if res.Token != "" {
				t.Error("no token expected without a token provider")
			}
		})
	}
}

func TestVerify_NotFoundNeverWrites(t *testing.T) {
	repo := &memRepo{loadErr: repository.ErrCorruptRecord}
	a, _ := newTestAuthority(repo, Options{})
	if _, err := a.Verify(context.Background(), "JagX1234", "+1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if repo.saves != 0 {
		t.Error("failed verify must not write")
	}
}

func TestVerify_SingleUseConcurrent(t *testing.T) {
	repo := &memRepo{rec: &domain.Record{Code: "JagX4821", ExpiresAt: t0.Add(time.Hour)}}
	a, _ := newTestAuthority(repo, Options{SingleUse: true})

	var ok, already atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := a.Verify(context.Background(), "JagX4821", "+1555")
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, domain.ErrAlreadyPaired):
				already.Add(1)
			}
		}()
	}
	wg.Wait()
	if ok.Load() != 1 || already.Load() != 15 {
		t.Errorf("successes = %d, already paired = %d; want 1 and 15", ok.Load(), already.Load())
	}
}

func TestVerify_IssuesTokenAndSession(t *testing.T) {
	tokens, err := security.NewEphemeralTokenProvider("jagx-pair", "jagx-bot", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	repo := &memRepo{rec: &domain.Record{Code: "JagX4821", ExpiresAt: time.Now().Add(time.Hour)}}
	a := NewAuthority(repo, nil, Options{Tokens: tokens})
	if !a.TokensEnabled() {
		t.Fatal("TokensEnabled should be true")
	}

	res, err := a.Verify(context.Background(), "JagX4821", "+1555")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if res.Token == "" || res.TokenExpiresAt.IsZero() {
		t.Fatal("token should be issued on success")
	}

	sess, err := a.Session(context.Background(), res.Token)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if sess.UserPhone != "+1555" || sess.Code != "JagX4821" || !sess.Paired {
		t.Errorf("Session = %+v", sess)
	}

	if _, err := a.Session(context.Background(), "garbage"); !errors.Is(err, security.ErrInvalidToken) {
		t.Errorf("Session(garbage) err = %v, want ErrInvalidToken", err)
	}

	// Re-binding to another phone invalidates the earlier token.
	if _, err := a.Verify(context.Background(), "JagX4821", "+1666"); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Session(context.Background(), res.Token); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Session after rebind err = %v, want ErrNotFound", err)
	}
}

func TestSession_WithoutTokens(t *testing.T) {
	a, _ := newTestAuthority(&memRepo{}, Options{})
	if _, err := a.Session(context.Background(), "anything"); !errors.Is(err, security.ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestHealth(t *testing.T) {
	a, _ := newTestAuthority(&memRepo{loadErr: repository.ErrCorruptRecord}, Options{})
	if err := a.Health(context.Background()); err != nil {
		t.Errorf("corrupt record should not fail health: %v", err)
	}
	a, _ = newTestAuthority(&memRepo{loadErr: errors.New("disk gone")}, Options{})
	if err := a.Health(context.Background()); err == nil {
		t.Error("load failure should fail health")
	}
}
