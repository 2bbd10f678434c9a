package lead

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waassist/connector/pkg/constant"
	"github.com/waassist/connector/pkg/dtos"
	"github.com/waassist/connector/pkg/entities"
)

type memRepo struct {
	mu    sync.Mutex
	leads []entities.Lead
}

func (r *memRepo) CreateIfAbsent(_ context.Context, lead *entities.Lead) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.leads {
		if l.OrganizationID == lead.OrganizationID && l.PhoneNumber == lead.PhoneNumber {
			return false, nil
		}
	}
	lead.ID = uint(len(r.leads) + 1)
	r.leads = append(r.leads, *lead)
	return true, nil
}

func (r *memRepo) List(_ context.Context, orgID uint, _ int) ([]entities.Lead, int, error) {
	var out []entities.Lead
	for _, l := range r.leads {
		if l.OrganizationID == orgID {
			out = append(out, l)
		}
	}
	return out, 1, nil
}

func TestCreateIfAbsent_GuardsReinsertion(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo, "", time.Second)
	ctx := context.Background()

	created, err := svc.CreateIfAbsent(ctx, entities.Lead{OrganizationID: 1, PhoneNumber: "+55 11 99999-9999", BusinessName: "Bakery"})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.CreateIfAbsent(ctx, entities.Lead{OrganizationID: 1, PhoneNumber: "5511999999999", BusinessName: "Renamed"})
	require.NoError(t, err)
	assert.False(t, created)

	require.Len(t, repo.leads, 1)
	assert.Equal(t, "Bakery", repo.leads[0].BusinessName)
	assert.Equal(t, "5511999999999", repo.leads[0].PhoneNumber)

	created, err = svc.CreateIfAbsent(ctx, entities.Lead{OrganizationID: 2, PhoneNumber: "5511999999999"})
	require.NoError(t, err)
	assert.True(t, created)
}

func TestCreateIfAbsent_RejectsEmptyPhone(t *testing.T) {
	svc := NewService(&memRepo{}, "", time.Second)
	_, err := svc.CreateIfAbsent(context.Background(), entities.Lead{OrganizationID: 1, PhoneNumber: "unknown"})
	assert.EqualError(t, err, constant.INVALID_PHONE_NUMBER)
}

func TestList_InvalidPage(t *testing.T) {
	svc := NewService(&memRepo{}, "", time.Second)
	_, _, err := svc.List(context.Background(), 1, 0)
	assert.EqualError(t, err, constant.INVALID_PAGE_NUMBER)
}

func TestGenerate_StoresNewLeads(t *testing.T) {
	var got generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"leads":[
			{"name":"Bakery","phone":"+55 11 99999-9999"},
			{"business_name":"Gym","phone_number":"5511988887777","city":"Campinas"},
			{"name":"No phone"}
		]}`))
	}))
	defer server.Close()

	repo := &memRepo{leads: []entities.Lead{{OrganizationID: 3, PhoneNumber: "5511988887777"}}}
	svc := NewService(repo, server.URL, time.Second)

	result, err := svc.Generate(context.Background(), 7, 3, dtos.GenerateLeadsDTO{Segment: "food", City: "Sao Paulo"})

	require.NoError(t, err)
	assert.Equal(t, dtos.GenerateLeadsResultDTO{Received: 3, Created: 1, Existing: 1}, result)
	assert.Equal(t, generateRequest{OrganizationID: 3, ProfileID: 7, Segment: "food", City: "Sao Paulo", Limit: defaultGenerateLimit}, got)

	require.Len(t, repo.leads, 2)
	assert.Equal(t, "Bakery", repo.leads[1].BusinessName)
	assert.Equal(t, "food", repo.leads[1].Segment)
	assert.Equal(t, "Sao Paulo", repo.leads[1].City)
	assert.Equal(t, uint(7), repo.leads[1].ProfileID)
}

func TestGenerate_WebhookFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := NewService(&memRepo{}, server.URL, time.Second)
	_, err := svc.Generate(context.Background(), 1, 1, dtos.GenerateLeadsDTO{Segment: "food", City: "Rio"})
	assert.ErrorContains(t, err, "lead generation failed")
}

func TestGenerate_NotConfigured(t *testing.T) {
	svc := NewService(&memRepo{}, "", time.Second)
	_, err := svc.Generate(context.Background(), 1, 1, dtos.GenerateLeadsDTO{Segment: "food", City: "Rio"})
	assert.EqualError(t, err, constant.LEAD_WEBHOOK_MISSING)
}

func TestParseGenerated_BareArray(t *testing.T) {
	leads, err := parseGenerated(json.RawMessage(`[{"title":"Shop","telephone":5511977776666,"category":"retail"}]`))
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, dtos.GeneratedLeadDTO{BusinessName: "Shop", PhoneNumber: "5511977776666", Segment: "retail"}, leads[0])
}
