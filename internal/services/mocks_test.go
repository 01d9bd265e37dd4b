package services

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"restro_backend/internal/models"
	"restro_backend/internal/repositories"
	"restro_backend/internal/scheduler"
)

// --- no-op sql driver ---
//
// The repositories are faked in-memory, so no SQL ever reaches the driver.
// The services still open transactions on *sql.DB, and this driver lets
// Begin/Commit/Rollback succeed without a server.

type nopDriver struct{}

func (nopDriver) Open(string) (driver.Conn, error) { return nopConn{}, nil }

type nopConn struct{}

func (nopConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("statements are not expected in service tests")
}
func (nopConn) Close() error              { return nil }
func (nopConn) Begin() (driver.Tx, error) { return nopTx{}, nil }

type nopTx struct{}

func (nopTx) Commit() error   { return nil }
func (nopTx) Rollback() error { return nil }

func init() {
	sql.Register("servicetest", nopDriver{})
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("servicetest", "")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// --- fake clock ---

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	deadline time.Time
	f        func()
	stopped  bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) scheduler.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{deadline: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

// advance moves the clock forward and fires due, unstopped timers.
func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.deadline.After(c.now) {
			t.stopped = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	for _, t := range due {
		t.f()
	}
}

// --- recording publisher ---

type recordedEvent struct {
	Event   string
	OrderID int64
}

type recordingPublisher struct {
	events []recordedEvent
}

func (p *recordingPublisher) PublishOrderEvent(event string, orderID, tableID int64, payload interface{}) {
	p.events = append(p.events, recordedEvent{Event: event, OrderID: orderID})
}

func (p *recordingPublisher) PublishPaymentEvent(event string, paymentID, orderID int64, payload interface{}) {
	p.events = append(p.events, recordedEvent{Event: event, OrderID: orderID})
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) names() []string {
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Event)
	}
	return out
}

func (p *recordingPublisher) has(event string) bool {
	for _, e := range p.events {
		if e.Event == event {
			return true
		}
	}
	return false
}

// --- fake order store ---

type fakeOrderStore struct {
	orders      map[int64]*models.Order
	items       map[int64]*models.OrderItem
	nextOrderID int64
	nextItemID  int64
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{
		orders: make(map[int64]*models.Order),
		items:  make(map[int64]*models.OrderItem),
	}
}

func copyOrder(o *models.Order) *models.Order {
	cp := *o
	cp.Items = nil
	return &cp
}

func (s *fakeOrderStore) CreateOrder(_ repositories.SQLExecutor, order *models.Order) (int64, error) {
	s.nextOrderID++
	order.ID = s.nextOrderID
	s.orders[order.ID] = copyOrder(order)
	return order.ID, nil
}

func (s *fakeOrderStore) CreateOrderItem(_ repositories.SQLExecutor, item *models.OrderItem) (int64, error) {
	s.nextItemID++
	item.ID = s.nextItemID
	cp := *item
	s.items[item.ID] = &cp
	return item.ID, nil
}

func (s *fakeOrderStore) GetOrderByID(orderID int64) (*models.Order, error) {
	o, ok := s.orders[orderID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return copyOrder(o), nil
}

func (s *fakeOrderStore) GetOrderItemsByOrderID(orderID int64) ([]models.OrderItem, error) {
	var out []models.OrderItem
	for _, item := range s.items {
		if item.OrderID == orderID {
			out = append(out, *item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeOrderStore) GetOrderItemByID(orderID, itemID int64) (*models.OrderItem, error) {
	item, ok := s.items[itemID]
	if !ok || item.OrderID != orderID {
		return nil, repositories.ErrNotFound
	}
	cp := *item
	return &cp, nil
}

func (s *fakeOrderStore) GetOrders(filters models.OrderFilters) ([]models.Order, int, error) {
	var out []models.Order
	for _, o := range s.orders {
		if filters.Status != nil && *filters.Status != "" && o.Status != *filters.Status {
			continue
		}
		out = append(out, *copyOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (s *fakeOrderStore) GetOrdersByTable(tableID int64, status *string) ([]models.Order, error) {
	var out []models.Order
	for _, o := range s.orders {
		if o.TableID != tableID {
			continue
		}
		if status != nil && *status != "" && o.Status != *status {
			continue
		}
		out = append(out, *copyOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeOrderStore) GetKitchenOrders(statuses []string) ([]models.Order, error) {
	want := make(map[string]bool, len(statuses))
	for _, st := range statuses {
		want[st] = true
	}
	var out []models.Order
	for _, o := range s.orders {
		if !want[o.Status] {
			continue
		}
		cp := *copyOrder(o)
		cp.Items, _ = s.GetOrderItemsByOrderID(o.ID)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *fakeOrderStore) UpdateOrderStatus(_ repositories.SQLExecutor, orderID int64, status string, cookedBy, servedBy *int64, updatedAt time.Time) error {
	o, ok := s.orders[orderID]
	if !ok {
		return repositories.ErrNotFound
	}
	o.Status = status
	if cookedBy != nil {
		o.CookedByID = cookedBy
	}
	if servedBy != nil {
		o.ServedByID = servedBy
	}
	o.UpdatedAt = updatedAt
	return nil
}

func (s *fakeOrderStore) UpdateOrderItemStatus(_ repositories.SQLExecutor, itemID int64, status string, notes *string, updatedAt time.Time) error {
	item, ok := s.items[itemID]
	if !ok {
		return repositories.ErrNotFound
	}
	item.Status = status
	if notes != nil {
		item.Notes = *notes
	}
	item.UpdatedAt = updatedAt
	return nil
}

func (s *fakeOrderStore) UpdateOrderTotals(_ repositories.SQLExecutor, orderID int64, totalAmount, finalAmount float64, updatedAt time.Time) error {
	o, ok := s.orders[orderID]
	if !ok {
		return repositories.ErrNotFound
	}
	o.TotalAmount = totalAmount
	o.FinalAmount = finalAmount
	o.UpdatedAt = updatedAt
	return nil
}

func appendNote(existing, line string) string {
	if existing == "" {
		return line
	}
	return existing + "\n" + line
}

func (s *fakeOrderStore) AppendOrderNote(_ repositories.SQLExecutor, orderID int64, line string, updatedAt time.Time) error {
	o, ok := s.orders[orderID]
	if !ok {
		return repositories.ErrNotFound
	}
	o.Note = appendNote(o.Note, line)
	o.UpdatedAt = updatedAt
	return nil
}

func (s *fakeOrderStore) MarkOrderTimedOut(_ repositories.SQLExecutor, orderID int64, noteLine string, updatedAt time.Time) error {
	o, ok := s.orders[orderID]
	if !ok {
		return repositories.ErrNotFound
	}
	o.Status = models.OrderStatusCancelled
	o.IsTimedOut = true
	o.Note = appendNote(o.Note, noteLine)
	o.UpdatedAt = updatedAt
	return nil
}

func isActiveStatus(status string) bool {
	return status == models.OrderStatusPending || status == models.OrderStatusInKitchen
}

func (s *fakeOrderStore) CountActiveOrders() (int, error) {
	count := 0
	for _, o := range s.orders {
		if isActiveStatus(o.Status) {
			count++
		}
	}
	return count, nil
}

func (s *fakeOrderStore) CountActiveOrdersByWaiter(waiterID int64) (int, error) {
	count := 0
	for _, o := range s.orders {
		if isActiveStatus(o.Status) && o.AssignedWaiterID != nil && *o.AssignedWaiterID == waiterID {
			count++
		}
	}
	return count, nil
}

func (s *fakeOrderStore) FindRecentActiveOrder(tableID int64, customerName string, since time.Time) (*models.Order, error) {
	for _, o := range s.orders {
		if o.TableID != tableID || o.CustomerName != customerName {
			continue
		}
		if o.CreatedAt.Before(since) {
			continue
		}
		if o.Status == models.OrderStatusCancelled || o.Status == models.OrderStatusCompleted {
			continue
		}
		return copyOrder(o), nil
	}
	return nil, repositories.ErrNotFound
}

func (s *fakeOrderStore) GetTimeoutCandidates() ([]models.Order, error) {
	var out []models.Order
	for _, o := range s.orders {
		if isActiveStatus(o.Status) && !o.IsTimedOut {
			out = append(out, *copyOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderTimeout.Before(out[j].OrderTimeout) })
	return out, nil
}

func (s *fakeOrderStore) GetOrderStatistics() (*models.OrderStatistics, error) {
	stats := &models.OrderStatistics{ByStatus: map[string]int{}}
	for _, o := range s.orders {
		stats.Total++
		stats.ByStatus[strings.ToLower(o.Status)]++
		if o.Status == models.OrderStatusPaid {
			stats.Revenue.Total += o.FinalAmount
		}
	}
	return stats, nil
}

// --- fake table store ---

type fakeTableStore struct {
	tables      map[int64]*models.Table
	nextTableID int64
}

func newFakeTableStore() *fakeTableStore {
	return &fakeTableStore{tables: make(map[int64]*models.Table)}
}

func (s *fakeTableStore) CreateTable(_ repositories.SQLExecutor, table *models.Table) (int64, error) {
	for _, existing := range s.tables {
		if existing.TableNumber == table.TableNumber {
			return 0, repositories.ErrDuplicateKey
		}
	}
	s.nextTableID++
	table.ID = s.nextTableID
	cp := *table
	s.tables[table.ID] = &cp
	return table.ID, nil
}

func (s *fakeTableStore) GetTableByID(tableID int64) (*models.Table, error) {
	t, ok := s.tables[tableID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *fakeTableStore) GetTables(status *string) ([]models.Table, error) {
	var out []models.Table
	for _, t := range s.tables {
		if status != nil && *status != "" && t.Status != *status {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeTableStore) UpdateTable(_ repositories.SQLExecutor, table *models.Table) error {
	if _, ok := s.tables[table.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *table
	s.tables[table.ID] = &cp
	return nil
}

func (s *fakeTableStore) DeleteTable(_ repositories.SQLExecutor, tableID int64) error {
	if _, ok := s.tables[tableID]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.tables, tableID)
	return nil
}

func (s *fakeTableStore) AssignWaiter(_ repositories.SQLExecutor, tableID int64, waiterID *int64, updatedAt time.Time) error {
	t, ok := s.tables[tableID]
	if !ok {
		return repositories.ErrNotFound
	}
	t.AssignedWaiterID = waiterID
	t.UpdatedAt = updatedAt
	return nil
}

func (s *fakeTableStore) SetTableOccupied(_ repositories.SQLExecutor, tableID, orderID int64, waiterID *int64, updatedAt time.Time) error {
	t, ok := s.tables[tableID]
	if !ok {
		return repositories.ErrNotFound
	}
	t.Status = models.TableStatusOccupied
	t.CurrentOrderID = &orderID
	if waiterID != nil {
		t.AssignedWaiterID = waiterID
	}
	t.UpdatedAt = updatedAt
	return nil
}

func (s *fakeTableStore) ClearTable(_ repositories.SQLExecutor, tableID int64, updatedAt time.Time) error {
	t, ok := s.tables[tableID]
	if !ok {
		return repositories.ErrNotFound
	}
	t.Status = models.TableStatusAvailable
	t.CurrentOrderID = nil
	t.UpdatedAt = updatedAt
	return nil
}

func (s *fakeTableStore) ClearTableIfCurrentOrder(_ repositories.SQLExecutor, tableID, orderID int64, updatedAt time.Time) (bool, error) {
	t, ok := s.tables[tableID]
	if !ok {
		return false, repositories.ErrNotFound
	}
	if t.CurrentOrderID == nil || *t.CurrentOrderID != orderID {
		return false, nil
	}
	t.Status = models.TableStatusAvailable
	t.CurrentOrderID = nil
	t.UpdatedAt = updatedAt
	return true, nil
}

func (s *fakeTableStore) GetOccupancy() (*models.TableOccupancy, error) {
	occ := &models.TableOccupancy{}
	for _, t := range s.tables {
		occ.Total++
		switch t.Status {
		case models.TableStatusAvailable:
			occ.Available++
		case models.TableStatusOccupied:
			occ.Occupied++
		case models.TableStatusReserved:
			occ.Reserved++
		}
	}
	return occ, nil
}

// --- fake menu store ---

type fakeMenuStore struct {
	categories map[int64]*models.Category
	menuItems  map[int64]*models.MenuItem
	nextID     int64
}

func newFakeMenuStore() *fakeMenuStore {
	return &fakeMenuStore{
		categories: make(map[int64]*models.Category),
		menuItems:  make(map[int64]*models.MenuItem),
	}
}

func (s *fakeMenuStore) CreateCategory(_ repositories.SQLExecutor, category *models.Category) (int64, error) {
	s.nextID++
	category.ID = s.nextID
	cp := *category
	s.categories[category.ID] = &cp
	return category.ID, nil
}

func (s *fakeMenuStore) GetCategories() ([]models.Category, error) {
	var out []models.Category
	for _, c := range s.categories {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeMenuStore) GetCategoryByID(categoryID int64) (*models.Category, error) {
	c, ok := s.categories[categoryID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *fakeMenuStore) UpdateCategory(_ repositories.SQLExecutor, category *models.Category) error {
	if _, ok := s.categories[category.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *category
	s.categories[category.ID] = &cp
	return nil
}

func (s *fakeMenuStore) DeleteCategory(_ repositories.SQLExecutor, categoryID int64) error {
	if _, ok := s.categories[categoryID]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.categories, categoryID)
	return nil
}

func (s *fakeMenuStore) CreateMenuItem(_ repositories.SQLExecutor, item *models.MenuItem) (int64, error) {
	s.nextID++
	item.ID = s.nextID
	cp := *item
	s.menuItems[item.ID] = &cp
	return item.ID, nil
}

func (s *fakeMenuStore) GetMenuItemByID(itemID int64) (*models.MenuItem, error) {
	item, ok := s.menuItems[itemID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *item
	return &cp, nil
}

func (s *fakeMenuStore) GetMenuItems(categoryID *int64, availability *string) ([]models.MenuItem, error) {
	var out []models.MenuItem
	for _, item := range s.menuItems {
		if categoryID != nil && (item.CategoryID == nil || *item.CategoryID != *categoryID) {
			continue
		}
		if availability != nil && *availability != "" && item.AvailabilityStatus != *availability {
			continue
		}
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeMenuStore) UpdateMenuItem(_ repositories.SQLExecutor, item *models.MenuItem) error {
	if _, ok := s.menuItems[item.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *item
	s.menuItems[item.ID] = &cp
	return nil
}

func (s *fakeMenuStore) SetMenuItemAvailability(_ repositories.SQLExecutor, itemID int64, availability string, updatedAt time.Time) error {
	item, ok := s.menuItems[itemID]
	if !ok {
		return repositories.ErrNotFound
	}
	item.AvailabilityStatus = availability
	item.UpdatedAt = updatedAt
	return nil
}

func (s *fakeMenuStore) DeleteMenuItem(_ repositories.SQLExecutor, itemID int64) error {
	if _, ok := s.menuItems[itemID]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.menuItems, itemID)
	return nil
}

// --- fake user store ---

type fakeUserStore struct {
	users  map[int64]*models.User
	roles  map[string]*models.Role
	nextID int64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users: make(map[int64]*models.User),
		roles: make(map[string]*models.Role),
	}
}

func (s *fakeUserStore) addWaiter(id int64, name string) {
	role := s.roles[models.RoleWaiter]
	if role == nil {
		role = &models.Role{ID: 1, Name: models.RoleWaiter}
		s.roles[models.RoleWaiter] = role
	}
	s.users[id] = &models.User{
		ID:        id,
		Username:  name,
		FirstName: name,
		RoleID:    &role.ID,
		Status:    models.UserStatusActive,
		Role:      role,
	}
}

func (s *fakeUserStore) CreateUser(_ repositories.SQLExecutor, user *models.User) (int64, error) {
	for _, existing := range s.users {
		if existing.Username == user.Username {
			return 0, repositories.ErrDuplicateKey
		}
	}
	s.nextID++
	user.ID = s.nextID + 100 // keep clear of addWaiter ids
	cp := *user
	s.users[user.ID] = &cp
	return user.ID, nil
}

func (s *fakeUserStore) GetUserByID(userID int64) (*models.User, error) {
	u, ok := s.users[userID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *fakeUserStore) GetUserByUsername(username string) (*models.User, error) {
	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *fakeUserStore) GetUsers(status *string) ([]models.User, error) {
	var out []models.User
	for _, u := range s.users {
		if status != nil && *status != "" && u.Status != *status {
			continue
		}
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeUserStore) GetActiveWaiters() ([]models.User, error) {
	var out []models.User
	for _, u := range s.users {
		if u.Status != models.UserStatusActive || u.Role == nil {
			continue
		}
		if u.Role.Name == models.RoleWaiter || u.Role.Name == models.RoleStaff {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeUserStore) UpdateUserStatus(_ repositories.SQLExecutor, userID int64, status string, updatedAt time.Time) error {
	u, ok := s.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	u.Status = status
	u.UpdatedAt = updatedAt
	return nil
}

func (s *fakeUserStore) CreateRole(_ repositories.SQLExecutor, role *models.Role) (int64, error) {
	s.nextID++
	role.ID = s.nextID + 1000
	cp := *role
	s.roles[role.Name] = &cp
	return role.ID, nil
}

func (s *fakeUserStore) GetRoleByName(name string) (*models.Role, error) {
	r, ok := s.roles[name]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *fakeUserStore) GetRoles() ([]models.Role, error) {
	var out []models.Role
	for _, r := range s.roles {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- fake payment store ---

type fakePaymentStore struct {
	payments map[int64]*models.Payment
	nextID   int64
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{payments: make(map[int64]*models.Payment)}
}

func (s *fakePaymentStore) CreatePayment(_ repositories.SQLExecutor, payment *models.Payment) (int64, error) {
	s.nextID++
	payment.ID = s.nextID
	cp := *payment
	s.payments[payment.ID] = &cp
	return payment.ID, nil
}

func (s *fakePaymentStore) GetPaymentByID(paymentID int64) (*models.Payment, error) {
	p, ok := s.payments[paymentID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *fakePaymentStore) GetPaymentByOrderID(orderID int64) (*models.Payment, error) {
	var latest *models.Payment
	for _, p := range s.payments {
		if p.OrderID != orderID {
			continue
		}
		if latest == nil || p.ID > latest.ID {
			latest = p
		}
	}
	if latest == nil {
		return nil, repositories.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (s *fakePaymentStore) FindActivePaymentByOrder(orderID int64) (*models.Payment, error) {
	for _, p := range s.payments {
		if p.OrderID != orderID {
			continue
		}
		if p.PaymentStatus == models.PaymentStatusPaid || p.PaymentStatus == models.PaymentStatusPending {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *fakePaymentStore) GetPayments(filters models.PaymentFilters) ([]models.Payment, int, error) {
	var out []models.Payment
	for _, p := range s.payments {
		if filters.PaymentStatus != nil && *filters.PaymentStatus != "" && p.PaymentStatus != *filters.PaymentStatus {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (s *fakePaymentStore) UpdatePaymentStatus(_ repositories.SQLExecutor, paymentID int64, status string, transactionID *string, handledBy *int64, paymentTime time.Time) error {
	p, ok := s.payments[paymentID]
	if !ok {
		return repositories.ErrNotFound
	}
	p.PaymentStatus = status
	if transactionID != nil {
		p.TransactionID = transactionID
	}
	if handledBy != nil {
		p.HandledByID = handledBy
	}
	p.PaymentTime = paymentTime
	p.UpdatedAt = paymentTime
	return nil
}

func (s *fakePaymentStore) MarkRefunded(_ repositories.SQLExecutor, paymentID int64, updatedAt time.Time) error {
	p, ok := s.payments[paymentID]
	if !ok {
		return repositories.ErrNotFound
	}
	p.PaymentStatus = models.PaymentStatusRefunded
	p.UpdatedAt = updatedAt
	return nil
}

func (s *fakePaymentStore) GetPaidBetween(start, end time.Time) ([]models.Payment, error) {
	var out []models.Payment
	for _, p := range s.payments {
		if p.PaymentStatus != models.PaymentStatusPaid {
			continue
		}
		if p.PaymentTime.Before(start) || !p.PaymentTime.Before(end) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakePaymentStore) GetDailySummary(start, end time.Time) (*models.DailySalesSummary, error) {
	summary := &models.DailySalesSummary{}
	paid, _ := s.GetPaidBetween(start, end)
	for _, p := range paid {
		summary.TotalSales += p.Amount
		summary.TotalTransactions++
	}
	if summary.TotalTransactions > 0 {
		summary.AverageTransaction = summary.TotalSales / float64(summary.TotalTransactions)
	}
	return summary, nil
}

func (s *fakePaymentStore) GetMethodBreakdown(start, end *time.Time) ([]models.PaymentMethodTotal, error) {
	totals := map[string]*models.PaymentMethodTotal{}
	for _, p := range s.payments {
		if p.PaymentStatus != models.PaymentStatusPaid {
			continue
		}
		entry := totals[p.PaymentMethod]
		if entry == nil {
			entry = &models.PaymentMethodTotal{Method: p.PaymentMethod}
			totals[p.PaymentMethod] = entry
		}
		entry.Count++
		entry.Total += p.Amount
	}
	var out []models.PaymentMethodTotal
	for _, entry := range totals {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Method < out[j].Method })
	return out, nil
}

func (s *fakePaymentStore) GetHourlyBreakdown(start, end time.Time) ([]models.HourlyTotal, error) {
	return nil, nil
}

// --- fixtures ---

const (
	testTableID    = int64(1)
	testMenuMainID = int64(1) // priced 100.00
	testMenuSideID = int64(2) // priced 50.00
)

type orderFixture struct {
	svc    OrderService
	sched  *scheduler.OrderTimeoutScheduler
	clock  *fakeClock
	orders *fakeOrderStore
	tables *fakeTableStore
	menu   *fakeMenuStore
	users  *fakeUserStore
	pub    *recordingPublisher
	cfg    OrderConfig
}

func newOrderFixture(t *testing.T, cfg OrderConfig) *orderFixture {
	t.Helper()

	clock := newFakeClock()
	sched := scheduler.New(clock)
	orders := newFakeOrderStore()
	tables := newFakeTableStore()
	menu := newFakeMenuStore()
	users := newFakeUserStore()
	pub := &recordingPublisher{}

	now := clock.Now()
	tables.tables[testTableID] = &models.Table{
		ID:          testTableID,
		TableNumber: 5,
		Capacity:    4,
		Status:      models.TableStatusAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	menu.menuItems[testMenuMainID] = &models.MenuItem{
		ID:                 testMenuMainID,
		Name:               "Chicken Momo",
		Price:              100.00,
		AvailabilityStatus: models.MenuItemAvailable,
	}
	menu.menuItems[testMenuSideID] = &models.MenuItem{
		ID:                 testMenuSideID,
		Name:               "Masala Tea",
		Price:              50.00,
		AvailabilityStatus: models.MenuItemAvailable,
	}
	menu.nextID = 10
	tables.nextTableID = 10

	svc := NewOrderService(orders, tables, menu, users, newTestDB(t), sched, clock, pub, cfg)
	sched.Bind(svc.HandleOrderTimeout)
	t.Cleanup(sched.Shutdown)

	return &orderFixture{
		svc:    svc,
		sched:  sched,
		clock:  clock,
		orders: orders,
		tables: tables,
		menu:   menu,
		users:  users,
		pub:    pub,
		cfg:    cfg,
	}
}

// placeOrder submits a standard two-line order (2x main + 1x side) with the
// given discount.
func (f *orderFixture) placeOrder(t *testing.T, customer string, discount float64) *models.Order {
	t.Helper()
	order, err := f.svc.CreateOrder(CreateOrderRequest{
		TableID:      testTableID,
		CustomerName: customer,
		Discount:     &discount,
		Items: []CreateOrderItemRequest{
			{MenuItemID: testMenuMainID, Quantity: 2},
			{MenuItemID: testMenuSideID, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("placing order for %s: %v", customer, err)
	}
	return order
}
