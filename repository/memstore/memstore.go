// Package memstore implements the repository interfaces in memory. It backs
// the handler and bot tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"dietcoach/models"
	"dietcoach/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store holds every collection behind one mutex.
type Store struct {
	mu           sync.Mutex
	users        map[primitive.ObjectID]models.User
	sessions     map[string]models.Session
	clients      map[primitive.ObjectID]models.Client
	measurements map[primitive.ObjectID]models.Measurement
	plans        map[primitive.ObjectID]models.DietPlan
	appointments map[primitive.ObjectID]models.Appointment
	activities   map[primitive.ObjectID]models.Activity

	// Err, when set, is returned by every call.
	Err error
	// Now stamps created_at/updated_at.
	Now func() time.Time
}

var (
	_ repository.UserRepository        = (*Store)(nil)
	_ repository.SessionRepository     = (*Store)(nil)
	_ repository.ClientRepository      = (*Store)(nil)
	_ repository.MeasurementRepository = (*Store)(nil)
	_ repository.DietPlanRepository    = (*Store)(nil)
	_ repository.AppointmentRepository = (*Store)(nil)
	_ repository.ActivityRepository    = (*Store)(nil)
)

func New() *Store {
	return &Store{
		users:        map[primitive.ObjectID]models.User{},
		sessions:     map[string]models.Session{},
		clients:      map[primitive.ObjectID]models.Client{},
		measurements: map[primitive.ObjectID]models.Measurement{},
		plans:        map[primitive.ObjectID]models.DietPlan{},
		appointments: map[primitive.ObjectID]models.Appointment{},
		activities:   map[primitive.ObjectID]models.Activity{},
		Now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) stamp(id *primitive.ObjectID, created, updated *time.Time) {
	ts := s.Now()
	if id.IsZero() {
		*id = primitive.NewObjectID()
	}
	if created.IsZero() {
		*created = ts
	}
	*updated = ts
}

func inRange(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && !t.Before(*to) {
		return false
	}
	return true
}

// Users

func (s *Store) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	u.Email = repository.NormalizeEmail(u.Email)
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	s.stamp(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	s.users[u.ID] = *u
	return nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	email = repository.NormalizeEmail(email)
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (s *Store) UpdateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	u.UpdatedAt = s.Now()
	s.users[u.ID] = *u
	return nil
}

// Sessions

func (s *Store) CreateSession(_ context.Context, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.sessions[sess.Token]; ok {
		return repository.ErrDuplicate
	}
	if sess.ID.IsZero() {
		sess.ID = primitive.NewObjectID()
	}
	s.sessions[sess.Token] = *sess
	return nil
}

func (s *Store) SessionActive(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	sess, ok := s.sessions[token]
	return ok && sess.ExpiresAt > s.Now().Unix(), nil
}

func (s *Store) DeleteSession(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.sessions[token]; !ok {
		return repository.ErrNotFound
	}
	delete(s.sessions, token)
	return nil
}

func (s *Store) DeleteUserSessions(_ context.Context, userID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for token, sess := range s.sessions {
		if sess.UserID == userID {
			delete(s.sessions, token)
		}
	}
	return nil
}

// Clients

func (s *Store) CreateClient(_ context.Context, c *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for _, existing := range s.clients {
		if existing.ReferenceCode == c.ReferenceCode {
			return repository.ErrDuplicate
		}
	}
	s.stamp(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	s.clients[c.ID] = *c
	return nil
}

func (s *Store) ListClients(_ context.Context, userID primitive.ObjectID, f repository.ClientFilter) ([]models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	search := strings.ToLower(f.Search)
	out := []models.Client{}
	for _, c := range s.clients {
		if c.UserID != userID {
			continue
		}
		if f.Active != nil && c.IsActive != *f.Active {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(c.Name+" "+c.Email+" "+c.Phone), search) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) GetClient(_ context.Context, userID, id primitive.ObjectID) (*models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	c, ok := s.clients[id]
	if !ok || c.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (s *Store) UpdateClient(_ context.Context, c *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	existing, ok := s.clients[c.ID]
	if !ok || existing.UserID != c.UserID {
		return repository.ErrNotFound
	}
	for id, other := range s.clients {
		if id != c.ID && other.ReferenceCode == c.ReferenceCode {
			return repository.ErrDuplicate
		}
	}
	c.UpdatedAt = s.Now()
	s.clients[c.ID] = *c
	return nil
}

func (s *Store) DeleteClient(_ context.Context, userID, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	c, ok := s.clients[id]
	if !ok || c.UserID != userID {
		return repository.ErrNotFound
	}
	delete(s.clients, id)
	return nil
}

func (s *Store) CountClients(_ context.Context, userID primitive.ObjectID, active *bool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	var n int64
	for _, c := range s.clients {
		if c.UserID == userID && (active == nil || c.IsActive == *active) {
			n++
		}
	}
	return n, nil
}

func (s *Store) GetClientByReferenceCode(_ context.Context, code string) (*models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, c := range s.clients {
		if c.ReferenceCode == code {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) GetClientByChatID(_ context.Context, chatID int64) (*models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, c := range s.clients {
		if chatID != 0 && c.TelegramChatID == chatID {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) SetTelegramChat(_ context.Context, id primitive.ObjectID, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	c, ok := s.clients[id]
	if !ok {
		return repository.ErrNotFound
	}
	ts := s.Now()
	c.TelegramChatID = chatID
	c.TelegramLinkedAt = &ts
	if chatID == 0 {
		c.TelegramLinkedAt = nil
	}
	c.UpdatedAt = ts
	s.clients[id] = c
	return nil
}

// Measurements

func (s *Store) CreateMeasurement(_ context.Context, m *models.Measurement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.stamp(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	s.measurements[m.ID] = *m
	return nil
}

func (s *Store) ListMeasurements(_ context.Context, userID primitive.ObjectID, f repository.MeasurementFilter) ([]models.Measurement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := []models.Measurement{}
	for _, m := range s.measurements {
		if m.UserID != userID || (f.ClientID != nil && m.ClientID != *f.ClientID) || !inRange(m.Date, f.From, f.To) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if f.Ascending {
			return out[i].Date.Before(out[j].Date)
		}
		return out[j].Date.Before(out[i].Date)
	})
	return out, nil
}

func (s *Store) GetMeasurement(_ context.Context, userID, id primitive.ObjectID) (*models.Measurement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	m, ok := s.measurements[id]
	if !ok || m.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

func (s *Store) UpdateMeasurement(_ context.Context, m *models.Measurement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	existing, ok := s.measurements[m.ID]
	if !ok || existing.UserID != m.UserID {
		return repository.ErrNotFound
	}
	m.UpdatedAt = s.Now()
	s.measurements[m.ID] = *m
	return nil
}

func (s *Store) DeleteMeasurement(_ context.Context, userID, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	m, ok := s.measurements[id]
	if !ok || m.UserID != userID {
		return repository.ErrNotFound
	}
	delete(s.measurements, id)
	return nil
}

func (s *Store) DeleteClientMeasurements(_ context.Context, userID, clientID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	var n int64
	for id, m := range s.measurements {
		if m.UserID == userID && m.ClientID == clientID {
			delete(s.measurements, id)
			n++
		}
	}
	return n, nil
}

// Diet plans

func (s *Store) CreateDietPlan(_ context.Context, p *models.DietPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.stamp(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	s.plans[p.ID] = *p
	return nil
}

func (s *Store) ListDietPlans(_ context.Context, userID primitive.ObjectID, f repository.DietPlanFilter) ([]models.DietPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := []models.DietPlan{}
	for _, p := range s.plans {
		if p.UserID != userID || (f.ClientID != nil && p.ClientID != *f.ClientID) || (f.Active != nil && p.IsActive != *f.Active) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[j].StartDate.Before(out[i].StartDate) })
	return out, nil
}

func (s *Store) GetDietPlan(_ context.Context, userID, id primitive.ObjectID) (*models.DietPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	p, ok := s.plans[id]
	if !ok || p.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (s *Store) UpdateDietPlan(_ context.Context, p *models.DietPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	existing, ok := s.plans[p.ID]
	if !ok || existing.UserID != p.UserID {
		return repository.ErrNotFound
	}
	p.UpdatedAt = s.Now()
	s.plans[p.ID] = *p
	return nil
}

func (s *Store) DeleteDietPlan(_ context.Context, userID, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	p, ok := s.plans[id]
	if !ok || p.UserID != userID {
		return repository.ErrNotFound
	}
	delete(s.plans, id)
	return nil
}

func (s *Store) DeleteClientDietPlans(_ context.Context, userID, clientID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	var n int64
	for id, p := range s.plans {
		if p.UserID == userID && p.ClientID == clientID {
			delete(s.plans, id)
			n++
		}
	}
	return n, nil
}

func (s *Store) DeactivateOthers(_ context.Context, userID, clientID, keep primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for id, p := range s.plans {
		if p.UserID == userID && p.ClientID == clientID && id != keep && p.IsActive {
			p.IsActive = false
			p.UpdatedAt = s.Now()
			s.plans[id] = p
		}
	}
	return nil
}

func (s *Store) ActiveDietPlan(_ context.Context, userID, clientID primitive.ObjectID) (*models.DietPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var best *models.DietPlan
	for _, p := range s.plans {
		p := p
		if p.UserID == userID && p.ClientID == clientID && p.IsActive {
			if best == nil || p.StartDate.After(best.StartDate) {
				best = &p
			}
		}
	}
	if best == nil {
		return nil, repository.ErrNotFound
	}
	return best, nil
}

func (s *Store) CountActiveDietPlans(_ context.Context, userID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	var n int64
	for _, p := range s.plans {
		if p.UserID == userID && p.IsActive {
			n++
		}
	}
	return n, nil
}

// Appointments

func (s *Store) CreateAppointment(_ context.Context, a *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.stamp(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	s.appointments[a.ID] = *a
	return nil
}

func (s *Store) ListAppointments(_ context.Context, userID primitive.ObjectID, f repository.AppointmentFilter) ([]models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := []models.Appointment{}
	for _, a := range s.appointments {
		if a.UserID != userID || (f.ClientID != nil && a.ClientID != *f.ClientID) ||
			(f.Status != "" && a.Status != f.Status) || !inRange(a.Date, f.From, f.To) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	if f.Limit > 0 && int64(len(out)) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) GetAppointment(_ context.Context, userID, id primitive.ObjectID) (*models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	a, ok := s.appointments[id]
	if !ok || a.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (s *Store) UpdateAppointment(_ context.Context, a *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	existing, ok := s.appointments[a.ID]
	if !ok || existing.UserID != a.UserID {
		return repository.ErrNotFound
	}
	a.UpdatedAt = s.Now()
	s.appointments[a.ID] = *a
	return nil
}

func (s *Store) DeleteAppointment(_ context.Context, userID, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	a, ok := s.appointments[id]
	if !ok || a.UserID != userID {
		return repository.ErrNotFound
	}
	delete(s.appointments, id)
	return nil
}

func (s *Store) DeleteClientAppointments(_ context.Context, userID, clientID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	var n int64
	for id, a := range s.appointments {
		if a.UserID == userID && a.ClientID == clientID {
			delete(s.appointments, id)
			n++
		}
	}
	return n, nil
}

func (s *Store) Overlapping(_ context.Context, userID primitive.ObjectID, start, end time.Time, exclude primitive.ObjectID) ([]models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := []models.Appointment{}
	for id, a := range s.appointments {
		if a.UserID == userID && id != exclude && a.Status == models.StatusScheduled && a.Overlaps(start, end) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Store) NextAppointment(_ context.Context, userID, clientID primitive.ObjectID, after time.Time) (*models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var best *models.Appointment
	for _, a := range s.appointments {
		a := a
		if a.UserID != userID || a.ClientID != clientID || a.Status != models.StatusScheduled || a.Date.Before(after) {
			continue
		}
		if best == nil || a.Date.Before(best.Date) {
			best = &a
		}
	}
	if best == nil {
		return nil, repository.ErrNotFound
	}
	return best, nil
}

func (s *Store) DueForReminder(_ context.Context, from, to time.Time) ([]models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := []models.Appointment{}
	for _, a := range s.appointments {
		if a.Status == models.StatusScheduled && !a.ReminderSent && inRange(a.Date, &from, &to) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *Store) MarkReminderSent(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	a, ok := s.appointments[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.ReminderSent = true
	s.appointments[id] = a
	return nil
}

// Activities

func (s *Store) CreateActivity(_ context.Context, a *models.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.stamp(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	s.activities[a.ID] = *a
	return nil
}

func (s *Store) ListActivities(_ context.Context, userID primitive.ObjectID, f repository.ActivityFilter) ([]models.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := []models.Activity{}
	for _, a := range s.activities {
		if a.UserID != userID || (f.ClientID != nil && (a.ClientID == nil || *a.ClientID != *f.ClientID)) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[j].ID.Hex() < out[i].ID.Hex()
		}
		return out[j].CreatedAt.Before(out[i].CreatedAt)
	})
	limit := f.Limit
	if limit <= 0 {
		limit = repository.DefaultActivityLimit
	}
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) DeleteActivity(_ context.Context, userID, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	a, ok := s.activities[id]
	if !ok || a.UserID != userID {
		return repository.ErrNotFound
	}
	delete(s.activities, id)
	return nil
}

func (s *Store) DeleteClientActivities(_ context.Context, userID, clientID primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	var n int64
	for id, a := range s.activities {
		if a.UserID == userID && a.ClientID != nil && *a.ClientID == clientID {
			delete(s.activities, id)
			n++
		}
	}
	return n, nil
}
