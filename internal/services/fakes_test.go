package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ArowuTest/raffle-backend/internal/engine"
	"github.com/ArowuTest/raffle-backend/internal/models"
	"github.com/ArowuTest/raffle-backend/internal/repositories"
	"github.com/ArowuTest/raffle-backend/pkg/redislock"
	"github.com/ArowuTest/raffle-backend/pkg/voucherai"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeConfigRepo struct {
	mu  sync.Mutex
	cfg *models.SystemConfig
}

func (r *fakeConfigRepo) FindByKey(_ context.Context, key string) (*models.SystemConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cfg == nil || r.cfg.Key != key {
		return nil, repositories.ErrNotFound
	}
	c := *r.cfg
	return &c, nil
}

func (r *fakeConfigRepo) Upsert(_ context.Context, cfg *models.SystemConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *cfg
	r.cfg = &c
	return nil
}

type fakeRaffleRepo struct {
	mu      sync.Mutex
	raffles map[primitive.ObjectID]*models.Raffle
	// closeDelay simulates store latency in CloseOpen
	closeDelay time.Duration
}

func newFakeRaffleRepo() *fakeRaffleRepo {
	return &fakeRaffleRepo{raffles: map[primitive.ObjectID]*models.Raffle{}}
}

func (r *fakeRaffleRepo) Create(_ context.Context, raffle *models.Raffle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if raffle.IsOpen() {
		for _, existing := range r.raffles {
			if existing.IsOpen() {
				return repositories.ErrDuplicate
			}
		}
	}
	raffle.ID = primitive.NewObjectID()
	c := *raffle
	r.raffles[raffle.ID] = &c
	return nil
}

func (r *fakeRaffleRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Raffle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	raffle, ok := r.raffles[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := *raffle
	return &c, nil
}

func (r *fakeRaffleRepo) FindOpen(_ context.Context) (*models.Raffle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var open *models.Raffle
	for _, raffle := range r.raffles {
		if raffle.IsOpen() && (open == nil || raffle.StartedAt.After(open.StartedAt)) {
			open = raffle
		}
	}
	if open == nil {
		return nil, repositories.ErrNotFound
	}
	c := *open
	return &c, nil
}

func (r *fakeRaffleRepo) FindAll(_ context.Context, _, _ int) ([]*models.Raffle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.Raffle{}
	for _, raffle := range r.raffles {
		c := *raffle
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}

func (r *fakeRaffleRepo) SetVideo(_ context.Context, id primitive.ObjectID, videoURL, embedURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	raffle, ok := r.raffles[id]
	if !ok {
		return repositories.ErrNotFound
	}
	raffle.VideoURL = videoURL
	raffle.EmbedURL = embedURL
	return nil
}

func (r *fakeRaffleRepo) CloseOpen(_ context.Context, endedAt time.Time) (int64, error) {
	if r.closeDelay > 0 {
		time.Sleep(r.closeDelay)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, raffle := range r.raffles {
		if raffle.IsOpen() {
			raffle.Status = models.RaffleStatusClosed
			t := endedAt
			raffle.EndedAt = &t
			n++
		}
	}
	return n, nil
}

func (r *fakeRaffleRepo) Close(_ context.Context, raffle *models.Raffle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.raffles[raffle.ID]
	if !ok || !stored.IsOpen() {
		return repositories.ErrNotFound
	}
	raffle.Status = models.RaffleStatusClosed
	c := *raffle
	r.raffles[raffle.ID] = &c
	return nil
}

func (r *fakeRaffleRepo) CountByStatus(_ context.Context, status models.RaffleStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, raffle := range r.raffles {
		if raffle.Status == status {
			n++
		}
	}
	return n, nil
}

type fakeCouponRepo struct {
	mu      sync.Mutex
	coupons map[primitive.ObjectID]*models.Coupon
}

func newFakeCouponRepo() *fakeCouponRepo {
	return &fakeCouponRepo{coupons: map[primitive.ObjectID]*models.Coupon{}}
}

func (r *fakeCouponRepo) byCode(code string) *models.Coupon {
	for _, c := range r.coupons {
		if c.Code == code {
			return c
		}
	}
	return nil
}

func (r *fakeCouponRepo) Create(_ context.Context, coupon *models.Coupon) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byCode(coupon.Code) != nil {
		return repositories.ErrDuplicate
	}
	coupon.ID = primitive.NewObjectID()
	c := *coupon
	r.coupons[coupon.ID] = &c
	return nil
}

func (r *fakeCouponRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.coupons[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCouponRepo) FindByCode(_ context.Context, code string) (*models.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.byCode(code)
	if c == nil {
		return nil, repositories.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCouponRepo) FindAll(_ context.Context, _, _ int) ([]*models.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.Coupon{}
	for _, c := range r.coupons {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *fakeCouponRepo) Update(_ context.Context, coupon *models.Coupon) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.coupons[coupon.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	if other := r.byCode(coupon.Code); other != nil && other.ID != coupon.ID {
		return repositories.ErrDuplicate
	}
	uses := stored.CurrentUses
	c := *coupon
	c.CurrentUses = uses
	r.coupons[coupon.ID] = &c
	return nil
}

func (r *fakeCouponRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.coupons[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.coupons, id)
	return nil
}

func (r *fakeCouponRepo) Redeem(_ context.Context, code string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.byCode(code)
	if c == nil || engine.CheckCoupon(c, now) != engine.CouponValid {
		return false, nil
	}
	c.CurrentUses++
	return true, nil
}

func (r *fakeCouponRepo) Release(_ context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c := r.byCode(code); c != nil && c.CurrentUses > 0 {
		c.CurrentUses--
	}
	return nil
}

func (r *fakeCouponRepo) uses(code string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c := r.byCode(code); c != nil {
		return c.CurrentUses
	}
	return -1
}

type fakeVoucherRepo struct {
	mu       sync.Mutex
	vouchers map[primitive.ObjectID]*models.Voucher
}

func newFakeVoucherRepo() *fakeVoucherRepo {
	return &fakeVoucherRepo{vouchers: map[primitive.ObjectID]*models.Voucher{}}
}

func (r *fakeVoucherRepo) Create(_ context.Context, v *models.Voucher) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v.ID = primitive.NewObjectID()
	c := *v
	r.vouchers[v.ID] = &c
	return nil
}

func (r *fakeVoucherRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Voucher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vouchers[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := *v
	return &c, nil
}

func (r *fakeVoucherRepo) filter(keep func(*models.Voucher) bool) []*models.Voucher {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.Voucher{}
	for _, v := range r.vouchers {
		if keep(v) {
			c := *v
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out
}

func firstPage(vouchers []*models.Voucher, limit int) []*models.Voucher {
	if limit > 0 && len(vouchers) > limit {
		return vouchers[:limit]
	}
	return vouchers
}

func (r *fakeVoucherRepo) FindByUserID(_ context.Context, userID primitive.ObjectID, _, limit int) ([]*models.Voucher, error) {
	return firstPage(r.filter(func(v *models.Voucher) bool { return v.UserID == userID }), limit), nil
}

func (r *fakeVoucherRepo) FindByStatus(_ context.Context, status models.VoucherStatus, _, limit int) ([]*models.Voucher, error) {
	return firstPage(r.filter(func(v *models.Voucher) bool { return status == "" || v.Status == status }), limit), nil
}

func (r *fakeVoucherRepo) Update(_ context.Context, v *models.Voucher) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.vouchers[v.ID]; !ok {
		return repositories.ErrNotFound
	}
	c := *v
	r.vouchers[v.ID] = &c
	return nil
}

func (r *fakeVoucherRepo) Transition(_ context.Context, id primitive.ObjectID, from, to models.VoucherStatus, reviewedBy string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.vouchers[id]
	if !ok || v.Status != from {
		return false, nil
	}
	v.Status = to
	if to == models.VoucherStatusPending {
		v.ReviewedAt = nil
		v.ReviewedBy = ""
	} else {
		t := at
		v.ReviewedAt = &t
		v.ReviewedBy = reviewedBy
	}
	return true, nil
}

func (r *fakeVoucherRepo) CountByStatus(_ context.Context, status models.VoucherStatus) (int64, error) {
	return int64(len(r.filter(func(v *models.Voucher) bool { return v.Status == status }))), nil
}

func (r *fakeVoucherRepo) SumAmounts(_ context.Context) (float64, float64, error) {
	var approved, declared float64
	for _, v := range r.filter(func(*models.Voucher) bool { return true }) {
		declared += v.DeclaredAmount
		if v.Status == models.VoucherStatusApproved {
			approved += v.DeclaredAmount
		}
	}
	return approved, declared, nil
}

func (r *fakeVoucherRepo) totals() map[primitive.ObjectID]models.DepositorTotal {
	out := map[primitive.ObjectID]models.DepositorTotal{}
	for _, v := range r.filter(func(*models.Voucher) bool { return true }) {
		t := out[v.UserID]
		t.UserID = v.UserID
		t.TotalDeposited += v.DeclaredAmount
		if v.Status == models.VoucherStatusApproved {
			t.TotalApproved += v.DeclaredAmount
		}
		if v.Status == models.VoucherStatusPending {
			t.PendingCount++
		}
		out[v.UserID] = t
	}
	return out
}

func (r *fakeVoucherRepo) TopDepositors(_ context.Context, limit int) ([]models.DepositorTotal, error) {
	out := []models.DepositorTotal{}
	for _, t := range r.totals() {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalDeposited > out[j].TotalDeposited })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeVoucherRepo) TotalsByUser(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.DepositorTotal, error) {
	all := r.totals()
	out := map[primitive.ObjectID]models.DepositorTotal{}
	for _, id := range ids {
		if t, ok := all[id]; ok {
			out[id] = t
		}
	}
	return out, nil
}

type fakeNumberRepo struct {
	mu       sync.Mutex
	numbers  []*models.RaffleNumber
	failNext error
}

func (r *fakeNumberRepo) InsertMany(_ context.Context, numbers []*models.RaffleNumber) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		return err
	}
	for _, n := range numbers {
		for _, existing := range r.numbers {
			if existing.RaffleID == n.RaffleID && existing.Number == n.Number {
				return repositories.ErrDuplicate
			}
		}
	}
	for _, n := range numbers {
		c := *n
		c.ID = primitive.NewObjectID()
		r.numbers = append(r.numbers, &c)
	}
	return nil
}

func (r *fakeNumberRepo) FindByRaffleID(_ context.Context, raffleID primitive.ObjectID) ([]models.RaffleNumber, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.RaffleNumber
	for _, n := range r.numbers {
		if n.RaffleID == raffleID {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (r *fakeNumberRepo) NumberSet(_ context.Context, raffleID primitive.ObjectID) (map[string]struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := map[string]struct{}{}
	for _, n := range r.numbers {
		if n.RaffleID == raffleID {
			set[n.Number] = struct{}{}
		}
	}
	return set, nil
}

func (r *fakeNumberRepo) FindByUserID(_ context.Context, userID primitive.ObjectID) ([]*models.RaffleNumber, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.RaffleNumber{}
	for _, n := range r.numbers {
		if n.UserID == userID {
			c := *n
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeNumberRepo) SearchByNumber(_ context.Context, fragment string, _ int) ([]*models.RaffleNumber, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.RaffleNumber{}
	for _, n := range r.numbers {
		if strings.Contains(n.Number, fragment) {
			c := *n
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeNumberRepo) CountByUsers(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := map[primitive.ObjectID]bool{}
	for _, id := range ids {
		want[id] = true
	}
	out := map[primitive.ObjectID]int{}
	for _, n := range r.numbers {
		if want[n.UserID] {
			out[n.UserID]++
		}
	}
	return out, nil
}

func (r *fakeNumberRepo) Stats(_ context.Context, raffleID primitive.ObjectID) (models.RaffleStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var stats models.RaffleStats
	users := map[primitive.ObjectID]bool{}
	for _, n := range r.numbers {
		if n.RaffleID == raffleID {
			stats.TotalNumbers++
			users[n.UserID] = true
		}
	}
	stats.Participants = int64(len(users))
	return stats, nil
}

func (r *fakeNumberRepo) DeleteByVoucherID(_ context.Context, voucherID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.numbers[:0]
	for _, n := range r.numbers {
		if n.VoucherID != voucherID {
			kept = append(kept, n)
		}
	}
	r.numbers = kept
	return nil
}

func (r *fakeNumberRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.numbers)
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[primitive.ObjectID]*models.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return repositories.ErrDuplicate
		}
	}
	u.ID = primitive.NewObjectID()
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	c := *u
	r.users[u.ID] = &c
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (r *fakeUserRepo) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.User{}
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			c := *u
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeUserRepo) Search(_ context.Context, query string, _ int) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q := strings.ToLower(query)
	out := []*models.User{}
	for _, u := range r.users {
		if strings.Contains(strings.ToLower(u.Name), q) || strings.Contains(strings.ToLower(u.Email), q) || strings.Contains(u.CPF, q) {
			c := *u
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) CountPlayers(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, u := range r.users {
		if !u.IsAdmin() {
			n++
		}
	}
	return n, nil
}

type fakeWinnerRepo struct {
	mu      sync.Mutex
	winners []*models.Winner
}

func (r *fakeWinnerRepo) CreateMany(_ context.Context, winners []*models.Winner) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range winners {
		c := *w
		c.ID = primitive.NewObjectID()
		r.winners = append(r.winners, &c)
	}
	return nil
}

func (r *fakeWinnerRepo) FindByRaffleID(_ context.Context, raffleID primitive.ObjectID) ([]*models.Winner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.Winner{}
	for _, w := range r.winners {
		if w.RaffleID == raffleID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (r *fakeWinnerRepo) FindByUserID(_ context.Context, userID primitive.ObjectID) ([]*models.Winner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.Winner{}
	for _, w := range r.winners {
		if w.UserID != nil && *w.UserID == userID {
			out = append(out, w)
		}
	}
	return out, nil
}

type stubValidator struct {
	result *voucherai.Result
	err    error
	calls  int
}

func (v *stubValidator) Validate(_ context.Context, declared float64, _ []byte) (*voucherai.Result, error) {
	v.calls++
	if v.err != nil {
		return nil, v.err
	}
	r := *v.result
	if r.ReadAmount == 0 {
		r.ReadAmount = declared
	}
	return &r, nil
}

// testEnv wires every service over in-memory repositories
type testEnv struct {
	configRepo  *fakeConfigRepo
	raffleRepo  *fakeRaffleRepo
	couponRepo  *fakeCouponRepo
	voucherRepo *fakeVoucherRepo
	numberRepo  *fakeNumberRepo
	userRepo    *fakeUserRepo
	winnerRepo  *fakeWinnerRepo
	locker      *redislock.LocalLocker

	settings *SystemConfigServiceImpl
	raffles  *RaffleServiceImpl
	coupons  *CouponServiceImpl
	vouchers *VoucherServiceImpl
	users    *UserServiceImpl
}

func newTestEnv(validator VoucherValidator) *testEnv {
	env := &testEnv{
		configRepo:  &fakeConfigRepo{},
		raffleRepo:  newFakeRaffleRepo(),
		couponRepo:  newFakeCouponRepo(),
		voucherRepo: newFakeVoucherRepo(),
		numberRepo:  &fakeNumberRepo{},
		userRepo:    newFakeUserRepo(),
		winnerRepo:  &fakeWinnerRepo{},
	}
	env.locker = redislock.NewLocalLocker()
	env.settings = NewSystemConfigService(env.configRepo, env.raffleRepo)
	env.raffles = NewRaffleService(env.raffleRepo, env.numberRepo, env.winnerRepo, env.userRepo,
		env.settings, engine.NewDrawEngine(nil, nil), env.locker, nil)
	env.coupons = NewCouponService(env.couponRepo, env.settings)
	env.vouchers = NewVoucherService(env.voucherRepo, env.couponRepo, env.raffleRepo, env.numberRepo,
		env.settings, validator, engine.NewAllocator(nil), env.locker, nil)
	env.users = NewUserService(env.userRepo, env.raffleRepo, env.numberRepo, env.voucherRepo, env.winnerRepo)
	return env
}

// disableAI stores settings with automatic validation off
func (e *testEnv) disableAI() {
	cfg := models.DefaultSystemConfig()
	cfg.AIValidationEnabled = false
	_ = e.configRepo.Upsert(context.Background(), cfg)
}

func (e *testEnv) user(name string) *models.User {
	u := &models.User{Name: name, Email: strings.ToLower(name) + "@example.com", CPF: "000"}
	_ = e.userRepo.Create(context.Background(), u)
	return u
}
