package connection

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/waassist/connector/pkg/entities"
	"github.com/waassist/connector/pkg/gateway"
	"github.com/waassist/connector/pkg/notify"
	"gorm.io/gorm"
)

type memRepo struct {
	mu      sync.Mutex
	records []entities.ConnectionRecord
	saves   int
	nextID  uint
	clock   time.Time
}

func newMemRepo(seed ...entities.ConnectionRecord) *memRepo {
	r := &memRepo{clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	for _, rec := range seed {
		r.nextID++
		rec.ID = r.nextID
		if rec.CreatedAt.IsZero() {
			r.clock = r.clock.Add(time.Minute)
			rec.CreatedAt = r.clock
		}
		r.records = append(r.records, rec)
	}
	return r
}

func (r *memRepo) Latest(_ context.Context, profileID, orgID uint) (entities.ConnectionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var (
		best  entities.ConnectionRecord
		found bool
	)
	for _, rec := range r.records {
		if rec.ProfileID != profileID || rec.OrganizationID != orgID {
			continue
		}
		if !found || rec.CreatedAt.After(best.CreatedAt) || (rec.CreatedAt.Equal(best.CreatedAt) && rec.ID > best.ID) {
			best, found = rec, true
		}
	}
	if !found {
		return entities.ConnectionRecord{}, gorm.ErrRecordNotFound
	}
	return best, nil
}

func (r *memRepo) Save(_ context.Context, record *entities.ConnectionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if phone := record.Phone(); phone != "" {
		for _, rec := range r.records {
			if rec.ID != record.ID && rec.Phone() == phone {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	r.saves++
	if record.ID == 0 {
		r.nextID++
		r.clock = r.clock.Add(time.Minute)
		record.ID = r.nextID
		record.CreatedAt = r.clock
		r.records = append(r.records, *record)
		return nil
	}
	for i := range r.records {
		if r.records[i].ID == record.ID {
			r.records[i] = *record
		}
	}
	return nil
}

func (r *memRepo) FindByPhone(_ context.Context, phone string) (entities.ConnectionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.Phone() == phone {
			return rec, nil
		}
	}
	return entities.ConnectionRecord{}, gorm.ErrRecordNotFound
}

func (r *memRepo) Owners(context.Context) ([]Owner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[Owner]bool{}
	var owners []Owner
	for _, rec := range r.records {
		o := Owner{ProfileID: rec.ProfileID, OrganizationID: rec.OrganizationID}
		if !seen[o] {
			seen[o] = true
			owners = append(owners, o)
		}
	}
	return owners, nil
}

func (r *memRepo) saveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

// fakeGateway implements the calls the connection service makes; the
// embedded interface panics on anything else.
type fakeGateway struct {
	gateway.Gateway

	mu            sync.Mutex
	status        gateway.Status
	statusErr     error
	pairing       gateway.Pairing
	disconnectErr error
	disconnects   int
}

func (g *fakeGateway) GetStatus(context.Context) (gateway.Status, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status, g.statusErr
}

func (g *fakeGateway) RequestPairingCode(context.Context) (gateway.Pairing, error) {
	return g.pairing, nil
}

func (g *fakeGateway) Disconnect(context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.disconnects++
	return g.disconnectErr
}

func (g *fakeGateway) InstanceID() string { return "instance-1" }

type providerFunc func(ctx context.Context, orgID uint) (gateway.Gateway, error)

func (f providerFunc) For(ctx context.Context, orgID uint) (gateway.Gateway, error) {
	return f(ctx, orgID)
}

func staticProvider(gw gateway.Gateway) GatewayProvider {
	return providerFunc(func(context.Context, uint) (gateway.Gateway, error) { return gw, nil })
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) ConnectionEstablished(ctx context.Context, evt notify.ConnectionEvent) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []notify.ConnectionEvent
}

func (p *recordingPublisher) ConnectionChanged(evt notify.ConnectionEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

func (p *recordingPublisher) all() []notify.ConnectionEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]notify.ConnectionEvent(nil), p.events...)
}
