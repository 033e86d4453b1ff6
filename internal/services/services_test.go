package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ArowuTest/prizedrop-backend/internal/config"
	"github.com/ArowuTest/prizedrop-backend/internal/models"
	"github.com/ArowuTest/prizedrop-backend/internal/repositories"
	"github.com/ArowuTest/prizedrop-backend/internal/repositories/memory"
	"github.com/ArowuTest/prizedrop-backend/pkg/assets"
	"github.com/ArowuTest/prizedrop-backend/pkg/compositor"
	"github.com/ArowuTest/prizedrop-backend/pkg/jwt"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
)

type testEnv struct {
	core   *Core
	store  *repositories.Store
	fs     afero.Fs
	assets *assets.Store
}

func newTestEnv(t *testing.T, autoRetire bool) *testEnv {
	t.Helper()
	fs := afero.NewMemMapFs()
	assetStore := assets.NewStore(fs, "img", "hidden_img")
	store := memory.NewStore().Repositories()
	core := NewCore(store, assetStore, config.ClaimsConfig{MaxWinners: 3, AutoRetire: autoRetire}, zap.NewNop())
	return &testEnv{core: core, store: store, fs: fs, assets: assetStore}
}

func writePNG(t *testing.T, fs afero.Fs, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(10 * x), G: uint8(10 * y), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Expected no error encoding %s, got %v", path, err)
	}
	if err := afero.WriteFile(fs, path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("Expected no error writing %s, got %v", path, err)
	}
}

func (e *testEnv) seed(t *testing.T, users int, images ...string) []*models.Prize {
	t.Helper()
	ctx := context.Background()
	for i := 1; i <= users; i++ {
		if _, err := e.core.Users.Seen(ctx, int64(i), "user"+string(rune('a'+i-1))); err != nil {
			t.Fatalf("Expected no error seeding user %d, got %v", i, err)
		}
	}
	prizes, err := e.store.Prizes.CreateMany(ctx, images)
	if err != nil {
		t.Fatalf("Expected no error seeding prizes, got %v", err)
	}
	return prizes
}

func TestClaimFirstThreeWin(t *testing.T) {
	env := newTestEnv(t, true)
	prize := env.seed(t, 4, "p.png")[0]
	ctx := context.Background()

	var (
		mu      sync.Mutex
		results []*models.ClaimResult
		g       errgroup.Group
	)
	for i := int64(1); i <= 4; i++ {
		i := i
		g.Go(func() error {
			res, err := env.core.Claims.Claim(ctx, i, prize.ID)
			if err != nil {
				return err
			}
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var accepted, closed, retired int
	for _, r := range results {
		switch r.Outcome {
		case models.ClaimAccepted:
			accepted++
			if r.Image != "p.png" {
				t.Errorf("Expected p.png on an accepted claim, got %q", r.Image)
			}
		case models.ClaimClosedOut:
			closed++
		}
		if r.Retired {
			retired++
		}
	}
	if accepted != 3 || closed != 1 {
		t.Errorf("Expected 3 accepted and 1 closed out, got %d and %d", accepted, closed)
	}
	if retired != 1 {
		t.Errorf("Expected retirement to be reported once, got %d", retired)
	}

	n, _ := env.store.Wins.CountByPrize(ctx, prize.ID)
	if n != 3 {
		t.Errorf("Expected 3 winners, got %d", n)
	}
	p, _ := env.store.Prizes.FindByID(ctx, prize.ID)
	if !p.Used {
		t.Error("Expected the filled prize to be retired")
	}
}

func TestClaimDuplicate(t *testing.T) {
	env := newTestEnv(t, true)
	prize := env.seed(t, 1, "p.png")[0]
	ctx := context.Background()

	first, err := env.core.Claims.Claim(ctx, 1, prize.ID)
	if err != nil || first.Outcome != models.ClaimAccepted {
		t.Fatalf("Expected the first claim to be accepted, got %+v (%v)", first, err)
	}
	for i := 0; i < 3; i++ {
		again, err := env.core.Claims.Claim(ctx, 1, prize.ID)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if again.Outcome != models.ClaimDuplicate || again.Image != "" {
			t.Errorf("Expected a duplicate without image, got %+v", again)
		}
	}
	if n, _ := env.store.Wins.CountByPrize(ctx, prize.ID); n != 1 {
		t.Errorf("Expected 1 winner, got %d", n)
	}
}

func TestClaimClosedOut(t *testing.T) {
	env := newTestEnv(t, false)
	prize := env.seed(t, 5, "p.png")[0]
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		if res, err := env.core.Claims.Claim(ctx, i, prize.ID); err != nil || res.Outcome != models.ClaimAccepted {
			t.Fatalf("Expected claim %d to be accepted, got %+v (%v)", i, res, err)
		}
	}
	for i := int64(4); i <= 5; i++ {
		res, err := env.core.Claims.Claim(ctx, i, prize.ID)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if res.Outcome != models.ClaimClosedOut {
			t.Errorf("Expected claim %d to be closed out, got %s", i, res.Outcome)
		}
	}
	// a winner retrying a full prize is still a duplicate
	if res, _ := env.core.Claims.Claim(ctx, 1, prize.ID); res.Outcome != models.ClaimDuplicate {
		t.Errorf("Expected a winner retry after the cap to be a duplicate, got %s", res.Outcome)
	}

	p, _ := env.store.Prizes.FindByID(ctx, prize.ID)
	if p.Used {
		t.Error("Expected the prize to stay unused without auto retire")
	}
}

func TestClaimUnknown(t *testing.T) {
	env := newTestEnv(t, true)
	prize := env.seed(t, 1, "p.png")[0]
	ctx := context.Background()

	if _, err := env.core.Claims.Claim(ctx, 1, 999); !errors.Is(err, repositories.ErrPrizeNotFound) {
		t.Errorf("Expected ErrPrizeNotFound, got %v", err)
	}
	if _, err := env.core.Claims.Claim(ctx, 42, prize.ID); !errors.Is(err, repositories.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
	if n, _ := env.store.Wins.CountByPrize(ctx, prize.ID); n != 0 {
		t.Errorf("Expected no winners, got %d", n)
	}
}

func TestPrizeNext(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()

	if _, err := env.core.Prizes.Next(ctx); !errors.Is(err, repositories.ErrNoPrizesLeft) {
		t.Fatalf("Expected ErrNoPrizesLeft, got %v", err)
	}

	prizes := env.seed(t, 0, "a.png", "b.png")
	if err := env.core.Prizes.Retire(ctx, prizes[0].ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	for i := 0; i < 10; i++ {
		p, err := env.core.Prizes.Next(ctx)
		if err != nil {
			t.Fatalf("Expected a prize, got %v", err)
		}
		if p.ID != prizes[1].ID {
			t.Fatalf("Expected prize %d, got retired prize %d", prizes[1].ID, p.ID)
		}
	}

	status, err := env.core.Prizes.Status(ctx)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if status.Total != 2 || status.Unused != 1 {
		t.Errorf("Expected 2 total and 1 unused, got %+v", status)
	}

	img, err := env.core.Prizes.Image(ctx, prizes[1].ID)
	if err != nil || img != "b.png" {
		t.Errorf("Expected b.png, got %q (%v)", img, err)
	}
}

func TestLoadStock(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	writePNG(t, env.fs, "img/a.png", 40, 40)
	writePNG(t, env.fs, "img/b.png", 10, 20)
	afero.WriteFile(env.fs, "img/broken.png", []byte("nope"), 0o644)
	afero.WriteFile(env.fs, "img/readme.txt", []byte("text"), 0o644)

	created, err := env.core.Prizes.LoadStock(ctx)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(created) != 2 || created[0].Image != "a.png" || created[1].Image != "b.png" {
		t.Fatalf("Expected a.png and b.png to be stocked, got %+v", created)
	}
	if ok, _ := afero.Exists(env.fs, "hidden_img/a.png"); !ok {
		t.Error("Expected a teaser for a.png")
	}

	teaser, ref, err := env.core.Prizes.Teaser(ctx, created[1].ID)
	if err != nil || ref != "b.png" {
		t.Fatalf("Expected the b.png teaser, got %q (%v)", ref, err)
	}
	img, _, err := image.Decode(bytes.NewReader(teaser))
	if err != nil {
		t.Fatalf("Expected a decodable teaser, got %v", err)
	}
	if img.Bounds().Dx() != 10 || img.Bounds().Dy() != 20 {
		t.Errorf("Expected a 10x20 teaser, got %v", img.Bounds())
	}

	again, err := env.core.Prizes.LoadStock(ctx)
	if err != nil || len(again) != 0 {
		t.Errorf("Expected no new prizes on a second load, got %d (%v)", len(again), err)
	}
}

func TestSummary(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	writePNG(t, env.fs, "img/wide.png", 4, 2)
	writePNG(t, env.fs, "hidden_img/tall.png", 2, 3)
	prizes := env.seed(t, 2, "wide.png", "tall.png", "gone.png")

	for _, p := range prizes {
		if _, err := env.core.Claims.Claim(ctx, 1, p.ID); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	}

	summary, err := env.core.Rewards.Summary(ctx, 1)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if summary.Skipped != 1 || strings.Join(summary.Images, ",") != "wide.png,tall.png" {
		t.Errorf("Expected wide.png,tall.png with 1 skipped, got %v with %d skipped", summary.Images, summary.Skipped)
	}
	img, err := png.Decode(bytes.NewReader(summary.PNG))
	if err != nil {
		t.Fatalf("Expected a PNG, got %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 4, 5) {
		t.Errorf("Expected a 4x5 summary, got %v", img.Bounds())
	}
	if _, _, _, a := img.At(3, 4).RGBA(); a != 0xffff {
		t.Error("Expected residual pixels to be opaque")
	}

	if _, err := env.core.Rewards.Summary(ctx, 2); !errors.Is(err, compositor.ErrNoArtifact) {
		t.Errorf("Expected ErrNoArtifact, got %v", err)
	}
}

func TestSummaryFallsBackToObscured(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	afero.WriteFile(env.fs, "img/torn.png", []byte("not a png"), 0o644)
	writePNG(t, env.fs, "hidden_img/torn.png", 3, 2)
	prize := env.seed(t, 1, "torn.png")[0]
	if _, err := env.core.Claims.Claim(ctx, 1, prize.ID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	summary, err := env.core.Rewards.Summary(ctx, 1)
	if err != nil {
		t.Fatalf("Expected the obscured variant to be used, got %v", err)
	}
	if summary.Skipped != 0 || len(summary.Images) != 1 {
		t.Errorf("Expected torn.png with nothing skipped, got %v with %d skipped", summary.Images, summary.Skipped)
	}
	img, err := png.Decode(bytes.NewReader(summary.PNG))
	if err != nil {
		t.Fatalf("Expected a PNG, got %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 3, 2) {
		t.Errorf("Expected a 3x2 summary, got %v", img.Bounds())
	}
}

func TestLeaderboard(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	prizes := env.seed(t, 3, "a.png", "b.png")

	claims := [][2]int64{{2, 1}, {1, 1}, {1, 2}}
	for _, c := range claims {
		if _, err := env.core.Claims.Claim(ctx, c[0], prizes[c[1]-1].ID); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	}

	entries, err := env.core.Rewards.Leaderboard(ctx)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(entries) != 2 || entries[0].UserID != 1 || entries[0].Wins != 2 || entries[1].UserID != 2 {
		t.Fatalf("Expected user 1 with 2 wins then user 2, got %+v", entries)
	}

	text := LeaderboardText(entries)
	lines := strings.Split(text, "\n")
	if lines[0] != "|USER_NAME    |COUNT_PRIZE|" {
		t.Errorf("Unexpected header %q", lines[0])
	}
	if lines[2] != "| @usera       | 2          |" {
		t.Errorf("Unexpected first row %q", lines[2])
	}
	if len(lines) != 6 {
		t.Errorf("Expected 6 lines, got %d:\n%s", len(lines), text)
	}
}

func TestUserSeen(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()

	created, err := env.core.Users.Seen(ctx, 7, "first")
	if err != nil || !created {
		t.Fatalf("Expected the first Seen to create, got %v (%v)", created, err)
	}
	created, err = env.core.Users.Seen(ctx, 7, "renamed")
	if err != nil || created {
		t.Fatalf("Expected the second Seen not to create, got %v (%v)", created, err)
	}
	u, err := env.core.Users.GetUserByID(ctx, 7)
	if err != nil || u.Name != "first" {
		t.Errorf("Expected the name to stay first, got %+v (%v)", u, err)
	}
}

func TestAuthLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Expected no error hashing, got %v", err)
	}
	tokens := jwt.NewTokenService("secret", time.Hour)
	auth := NewAuthService(config.AdminConfig{Email: "admin@example.com", PasswordHash: string(hash)}, tokens, zap.NewNop())
	ctx := context.Background()

	res, err := auth.Login(ctx, &models.LoginRequest{Email: "Admin@Example.com", Password: "hunter2"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	claims, err := tokens.Parse(res.Token)
	if err != nil || claims.Role != RoleAdmin {
		t.Errorf("Expected admin claims, got %+v (%v)", claims, err)
	}

	for _, req := range []models.LoginRequest{
		{Email: "admin@example.com", Password: "wrong"},
		{Email: "other@example.com", Password: "hunter2"},
	} {
		if _, err := auth.Login(ctx, &req); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Expected ErrInvalidCredentials for %s, got %v", req.Email, err)
		}
	}

	unset := NewAuthService(config.AdminConfig{}, tokens, zap.NewNop())
	if _, err := unset.Login(ctx, &models.LoginRequest{Email: "a@b.c", Password: "x"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials without an admin, got %v", err)
	}
}

type fakePusher struct {
	mu     sync.Mutex
	users  []int64
	fail   map[int64]bool
	pushed map[int64][]byte
}

func (p *fakePusher) Connected() []int64 { return p.users }

func (p *fakePusher) Send(ctx context.Context, userID int64, msg []byte) error {
	if p.fail[userID] {
		return errors.New("gone")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushed[userID] = msg
	return nil
}

func TestBroadcast(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	pusher := &fakePusher{users: []int64{1, 2, 3}, fail: map[int64]bool{3: true}, pushed: map[int64][]byte{}}
	b := NewBroadcastService(env.core.Prizes, pusher, 0, zap.NewNop())

	if _, err := b.Broadcast(ctx); !errors.Is(err, repositories.ErrNoPrizesLeft) {
		t.Fatalf("Expected ErrNoPrizesLeft, got %v", err)
	}
	if len(pusher.pushed) != 0 {
		t.Error("Expected nothing to be pushed without prizes")
	}

	prize := env.seed(t, 0, "a.png")[0]
	report, err := b.Broadcast(ctx)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if report.PrizeID != prize.ID || report.Delivered != 2 || report.Failed != 1 {
		t.Errorf("Expected 2 delivered and 1 failed, got %+v", report)
	}
	if !strings.Contains(string(pusher.pushed[1]), `"image_url":"/api/v1/prizes/1/teaser"`) {
		t.Errorf("Expected the teaser url in the push, got %s", pusher.pushed[1])
	}
}
