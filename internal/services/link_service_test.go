package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/skinbridge/backend/internal/events"
	"github.com/skinbridge/backend/internal/models"
	"github.com/skinbridge/backend/internal/repositories"
	"github.com/skinbridge/backend/internal/steam"
	"go.uber.org/zap"
)

const (
	testWallet  = "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"
	testWallet2 = "0x0000000000000000000000000000000000000001"
	testSteamID = "76561198000000001"
)

// fakeLinkStore повторяет контракт UserLinkRepo в памяти.
type fakeLinkStore struct {
	records map[string]*models.UserLink
	failAll bool
}

func newFakeLinkStore() *fakeLinkStore {
	return &fakeLinkStore{records: make(map[string]*models.UserLink)}
}

func (f *fakeLinkStore) GetByWallet(_ context.Context, wallet string) (*models.UserLink, error) {
	if f.failAll {
		return nil, errors.New("storage down")
	}
	rec, ok := f.records[wallet]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeLinkStore) UpsertLink(_ context.Context, wallet, steamID string, username, avatar, profileURL *string) (*models.UserLink, error) {
	if f.failAll {
		return nil, errors.New("storage down")
	}
	for w, rec := range f.records {
		if w != wallet && rec.SteamID != nil && *rec.SteamID == steamID {
			return nil, repositories.ErrSteamIDLinked
		}
	}
	if existing, ok := f.records[wallet]; ok {
		if existing.SteamID != nil && *existing.SteamID != steamID {
			return nil, repositories.ErrWalletLinked
		}
		existing.SteamID = &steamID
		existing.SteamUsername = username
		existing.SteamAvatar = avatar
		existing.SteamProfileURL = profileURL
		existing.UpdatedAt = time.Now()
		cp := *existing
		return &cp, nil
	}
	rec := &models.UserLink{
		WalletAddress: wallet, SteamID: &steamID,
		SteamUsername: username, SteamAvatar: avatar, SteamProfileURL: profileURL,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	f.records[wallet] = rec
	cp := *rec
	return &cp, nil
}

func (f *fakeLinkStore) UpsertTradeURL(_ context.Context, wallet, tradeURL string) (*models.UserLink, error) {
	if f.failAll {
		return nil, errors.New("storage down")
	}
	rec, ok := f.records[wallet]
	if !ok {
		rec = &models.UserLink{WalletAddress: wallet, CreatedAt: time.Now()}
		f.records[wallet] = rec
	}
	rec.TradeURL = &tradeURL
	rec.UpdatedAt = time.Now()
	cp := *rec
	return &cp, nil
}

func (f *fakeLinkStore) GetTradeURL(_ context.Context, wallet string) (*string, error) {
	if f.failAll {
		return nil, errors.New("storage down")
	}
	rec, ok := f.records[wallet]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return rec.TradeURL, nil
}

type fakeAudit struct {
	actions []string
	entries []models.AuditLog
}

func (f *fakeAudit) Log(_ context.Context, entry models.AuditLog) error {
	f.actions = append(f.actions, entry.Action)
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeAudit) GetByWallet(_ context.Context, wallet string, limit, _ int) ([]models.AuditLog, error) {
	var out []models.AuditLog
	for _, e := range f.entries {
		if e.WalletAddress == wallet {
			out = append(out, e)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

type fakePublisher struct{ published []events.Event }

func (f *fakePublisher) Publish(_ context.Context, _ string, e events.Event) error {
	f.published = append(f.published, e)
	return nil
}

type fakeProfiles struct {
	summary *steam.PlayerSummary
	err     error
}

func (f *fakeProfiles) PlayerSummary(_ context.Context, _ string) (*steam.PlayerSummary, error) {
	return f.summary, f.err
}

func callbackParams(wallet, claimedID string) url.Values {
	return url.Values{
		"openid.ns":         {"http://specs.openid.net/auth/2.0"},
		"openid.mode":       {"id_res"},
		"openid.claimed_id": {claimedID},
		"openid.sig":        {"sig"},
		"wallet":            {wallet},
	}
}

// newCallbackService собирает LinkService с настоящим OpenID-клиентом,
// указывающим на фейкового провайдера.
func newCallbackService(t *testing.T, providerBody string, store *fakeLinkStore, profiles profileFetcher) (*LinkService, *fakeAudit, *fakePublisher) {
	t.Helper()

	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(providerBody))
	}))
	t.Cleanup(provider.Close)

	verifier := steam.NewOpenIDClient(provider.URL, "https://example.com/identity/callback", 5*time.Second, zap.NewNop())
	audit := &fakeAudit{}
	pub := &fakePublisher{}
	svc := NewLinkService(store, audit, verifier, profiles, pub, zap.NewNop())
	return svc, audit, pub
}

func TestHandleCallback_Success(t *testing.T) {
	store := newFakeLinkStore()
	profiles := &fakeProfiles{summary: &steam.PlayerSummary{
		SteamID: testSteamID, PersonaName: "Gabe", AvatarFull: "https://avatars/full.jpg", ProfileURL: "https://steamcommunity.com/id/gabe",
	}}
	svc, audit, pub := newCallbackService(t, "is_valid:true\n", store, profiles)

	params := callbackParams(testWallet, "https://steamcommunity.com/openid/id/"+testSteamID)
	result, cbErr := svc.HandleCallback(context.Background(), params)
	if cbErr != nil {
		t.Fatalf("HandleCallback: %v", cbErr)
	}

	if !result.Success || result.SteamID != testSteamID || result.SteamUsername != "Gabe" {
		t.Errorf("result = %+v", result)
	}
	if result.SteamAvatar != "https://avatars/full.jpg" {
		t.Errorf("avatar = %q, want full", result.SteamAvatar)
	}

	rec, err := store.GetByWallet(context.Background(), testWallet)
	if err != nil {
		t.Fatalf("record not persisted: %v", err)
	}
	if rec.SteamID == nil || *rec.SteamID != testSteamID {
		t.Errorf("persisted steam_id = %v", rec.SteamID)
	}

	if len(audit.actions) != 1 || audit.actions[0] != models.AuditSteamLinked {
		t.Errorf("audit actions = %v", audit.actions)
	}
	if len(pub.published) != 1 || pub.published[0].Type != events.EventSteamLinked {
		t.Errorf("published = %v", pub.published)
	}
}

func TestHandleCallback_NotConfirmed(t *testing.T) {
	store := newFakeLinkStore()
	profiles := &fakeProfiles{summary: &steam.PlayerSummary{PersonaName: "Gabe"}}
	svc, _, _ := newCallbackService(t, "is_valid:false\n", store, profiles)

	params := callbackParams(testWallet, "https://steamcommunity.com/openid/id/"+testSteamID)
	_, cbErr := svc.HandleCallback(context.Background(), params)
	if cbErr == nil {
		t.Fatal("expected callback error")
	}
	if cbErr.Code != "authentication_failed" {
		t.Errorf("code = %q, want authentication_failed", cbErr.Code)
	}

	// Ничего не сохранено
	if _, err := store.GetByWallet(context.Background(), testWallet); !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("record persisted after failed verification: %v", err)
	}
}

func TestHandleCallback_MissingWallet(t *testing.T) {
	svc, _, _ := newCallbackService(t, "is_valid:true\n", newFakeLinkStore(), &fakeProfiles{})

	params := callbackParams("", "https://steamcommunity.com/openid/id/"+testSteamID)
	params.Del("wallet")
	_, cbErr := svc.HandleCallback(context.Background(), params)
	if cbErr == nil || cbErr.Code != "missing_wallet" {
		t.Fatalf("cbErr = %v, want missing_wallet", cbErr)
	}
}

func TestHandleCallback_ConflictingSteamID(t *testing.T) {
	store := newFakeLinkStore()
	// steam id уже привязан к другому кошельку
	if _, err := store.UpsertLink(context.Background(), testWallet2, testSteamID, nil, nil, nil); err != nil {
		t.Fatal(err)
	}

	profiles := &fakeProfiles{summary: &steam.PlayerSummary{PersonaName: "Gabe"}}
	svc, _, _ := newCallbackService(t, "is_valid:true\n", store, profiles)

	params := callbackParams(testWallet, "https://steamcommunity.com/openid/id/"+testSteamID)
	_, cbErr := svc.HandleCallback(context.Background(), params)
	if cbErr == nil || cbErr.Code != "steam_linked" {
		t.Fatalf("cbErr = %v, want steam_linked", cbErr)
	}
}

func TestHandleCallback_ProfileErrors(t *testing.T) {
	tests := []struct {
		name     string
		profiles *fakeProfiles
		wantCode string
	}{
		{"empty players", &fakeProfiles{err: steam.ErrProfileNotFound}, "steam_data_error"},
		{"api error", &fakeProfiles{err: errors.New("http 500")}, "steam_api_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeLinkStore()
			svc, _, _ := newCallbackService(t, "is_valid:true\n", store, tt.profiles)

			params := callbackParams(testWallet, "https://steamcommunity.com/openid/id/"+testSteamID)
			_, cbErr := svc.HandleCallback(context.Background(), params)
			if cbErr == nil || cbErr.Code != tt.wantCode {
				t.Fatalf("cbErr = %v, want %s", cbErr, tt.wantCode)
			}
			if len(store.records) != 0 {
				t.Error("record persisted despite profile failure")
			}
		})
	}
}

func newPlainService(store linkStore) *LinkService {
	verifier := steam.NewOpenIDClient("http://unused", "https://example.com/identity/callback", time.Second, zap.NewNop())
	return NewLinkService(store, &fakeAudit{}, verifier, &fakeProfiles{}, &fakePublisher{}, zap.NewNop())
}

func TestBeginAuth(t *testing.T) {
	svc := newPlainService(newFakeLinkStore())

	if _, err := svc.BeginAuth(""); !errors.Is(err, ErrMissingWallet) {
		t.Errorf("empty wallet: err = %v", err)
	}
	if _, err := svc.BeginAuth("not-a-wallet"); !errors.Is(err, ErrInvalidWallet) {
		t.Errorf("malformed wallet: err = %v", err)
	}

	authURL, err := svc.BeginAuth(testWallet)
	if err != nil {
		t.Fatalf("BeginAuth: %v", err)
	}
	parsed, _ := url.Parse(authURL)
	if parsed.Query().Get("openid.mode") != "checkid_setup" {
		t.Errorf("mode = %q", parsed.Query().Get("openid.mode"))
	}
}

func TestLink_Validation(t *testing.T) {
	svc := newPlainService(newFakeLinkStore())

	tests := []struct {
		name    string
		req     LinkRequest
		wantErr error
	}{
		{"missing fields", LinkRequest{WalletAddress: testWallet}, ErrMissingFields},
		{"bad wallet", LinkRequest{WalletAddress: "0xzz", SteamID: testSteamID, SteamUsername: "u"}, ErrInvalidWallet},
		{"bad steam id", LinkRequest{WalletAddress: testWallet, SteamID: "123", SteamUsername: "u"}, ErrInvalidSteamID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Link(context.Background(), tt.req); !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLink_IdempotentAndConflicts(t *testing.T) {
	store := newFakeLinkStore()
	svc := newPlainService(store)
	ctx := context.Background()

	req := LinkRequest{WalletAddress: testWallet, SteamID: testSteamID, SteamUsername: "Gabe"}

	// Первая привязка и идемпотентный повтор
	if _, err := svc.Link(ctx, req); err != nil {
		t.Fatalf("first link: %v", err)
	}
	if _, err := svc.Link(ctx, req); err != nil {
		t.Fatalf("idempotent relink: %v", err)
	}
	if len(store.records) != 1 {
		t.Fatalf("records = %d, want 1", len(store.records))
	}

	// Чужой steam id
	other := req
	other.WalletAddress = testWallet2
	if _, err := svc.Link(ctx, other); !errors.Is(err, repositories.ErrSteamIDLinked) {
		t.Errorf("steam conflict: err = %v", err)
	}

	// У кошелька другой steam id
	changed := req
	changed.SteamID = "76561198000000002"
	if _, err := svc.Link(ctx, changed); !errors.Is(err, repositories.ErrWalletLinked) {
		t.Errorf("wallet conflict: err = %v", err)
	}

	// Запись первого кошелька не изменилась
	rec, _ := store.GetByWallet(ctx, testWallet)
	if rec.SteamID == nil || *rec.SteamID != testSteamID {
		t.Errorf("original record mutated: %v", rec.SteamID)
	}
}

func TestTradeURL_RoundTrip(t *testing.T) {
	store := newFakeLinkStore()
	svc := newPlainService(store)
	ctx := context.Background()

	tradeURL := "https://steamcommunity.com/tradeoffer/new/?partner=123&token=AbC_-1"

	if _, err := svc.SetTradeURL(ctx, testWallet, "https://evil.example/x"); !errors.Is(err, ErrInvalidTradeURL) {
		t.Errorf("bad url: err = %v", err)
	}
	if _, err := svc.GetTradeURL(ctx, testWallet); !errors.Is(err, repositories.ErrNotFound) {
		t.Errorf("unknown wallet: err = %v", err)
	}

	if _, err := svc.SetTradeURL(ctx, testWallet, tradeURL); err != nil {
		t.Fatalf("SetTradeURL: %v", err)
	}

	got, err := svc.GetTradeURL(ctx, testWallet)
	if err != nil {
		t.Fatalf("GetTradeURL: %v", err)
	}
	if got == nil || *got != tradeURL {
		t.Errorf("trade url = %v, want %q", got, tradeURL)
	}
}

func TestLinkHistory(t *testing.T) {
	store := newFakeLinkStore()
	audit := &fakeAudit{}
	verifier := steam.NewOpenIDClient("http://unused", "https://example.com/identity/callback", time.Second, zap.NewNop())
	svc := NewLinkService(store, audit, verifier, &fakeProfiles{}, &fakePublisher{}, zap.NewNop())
	ctx := context.Background()

	if _, err := svc.History(ctx, "", 10, 0); !errors.Is(err, ErrMissingWallet) {
		t.Errorf("empty wallet: err = %v", err)
	}

	if _, err := svc.Link(ctx, LinkRequest{WalletAddress: testWallet, SteamID: testSteamID, SteamUsername: "Gabe"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SetTradeURL(ctx, testWallet, "https://steamcommunity.com/tradeoffer/new/?partner=1&token=a"); err != nil {
		t.Fatal(err)
	}

	logs, err := svc.History(ctx, testWallet, 10, 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("len(logs) = %d, want 2", len(logs))
	}
	if logs[0].Action != models.AuditSteamLinked || logs[1].Action != models.AuditTradeURLSet {
		t.Errorf("actions = %s, %s", logs[0].Action, logs[1].Action)
	}

	// Чужой кошелёк — пустой журнал
	logs, _ = svc.History(ctx, testWallet2, 10, 0)
	if len(logs) != 0 {
		t.Errorf("foreign wallet logs = %d, want 0", len(logs))
	}
}

func TestOnboardingStep(t *testing.T) {
	store := newFakeLinkStore()
	svc := newPlainService(store)
	ctx := context.Background()

	step, _, err := svc.OnboardingStep(ctx, testWallet, false)
	if err != nil || step != models.StepConnectWallet {
		t.Errorf("disconnected: step = %q err = %v", step, err)
	}

	step, _, err = svc.OnboardingStep(ctx, testWallet, true)
	if err != nil || step != models.StepLinkSteam {
		t.Errorf("no record: step = %q err = %v", step, err)
	}

	if _, err := store.UpsertLink(ctx, testWallet, testSteamID, nil, nil, nil); err != nil {
		t.Fatal(err)
	}
	step, _, _ = svc.OnboardingStep(ctx, testWallet, true)
	if step != models.StepSetTradeURL {
		t.Errorf("linked: step = %q", step)
	}

	if _, err := store.UpsertTradeURL(ctx, testWallet, "https://steamcommunity.com/tradeoffer/new/?partner=1&token=a"); err != nil {
		t.Fatal(err)
	}
	step, _, _ = svc.OnboardingStep(ctx, testWallet, true)
	if step != models.StepComplete {
		t.Errorf("complete: step = %q", step)
	}

	// Ошибка хранилища пробрасывается, а не маскируется шагом
	store.failAll = true
	if _, _, err := svc.OnboardingStep(ctx, testWallet, true); err == nil {
		t.Error("expected storage error")
	}
}
