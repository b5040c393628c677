package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/frontdesk/internal/models"
	"github.com/desertthunder/frontdesk/internal/shared"
	tu "github.com/desertthunder/frontdesk/internal/testing"
)

func newClientService(t *testing.T, h http.HandlerFunc) *RecordClient[models.Client] {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	return NewRecordClient[models.Client](NewAPIService(server.URL, nil), models.Clients, shared.NewMetrics())
}

func TestRecordClientList(t *testing.T) {
	t.Run("Builds Query String From QuerySpec", func(t *testing.T) {
		svc := newClientService(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/clients" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			q := r.URL.Query()
			if q.Get("page") != "2" || q.Get("surname_prefix") != "Iv" || q.Get("sort") != "phone" || q.Get("sort_order") != "desc" {
				t.Errorf("unexpected query %s", r.URL.RawQuery)
			}
			if q.Has("name_prefix") {
				t.Error("expected empty filter to be omitted")
			}
			if q.Get("page_size") != "25" {
				t.Errorf("expected default page_size 25, got %q", q.Get("page_size"))
			}
			w.Write([]byte(`{"items":[{"id":4,"surname":"Ivanova"}],"total":26,"page":2,"page_size":25}`))
		})
		svc.WithPageSize(25)

		q := models.QuerySpec{
			Page:      2,
			Filters:   models.Filters{"surname_prefix": "Iv", "name_prefix": ""},
			SortField: "phone",
			SortOrder: models.Desc,
		}
		got, err := svc.List(context.Background(), q)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got.Items) != 1 || got.Items[0].Surname != "Ivanova" || got.Total != 26 {
			t.Errorf("unexpected result %+v", got)
		}
	})

	t.Run("Server Error Message From Body", func(t *testing.T) {
		svc := newClientService(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"database is locked"}`))
		})

		_, err := svc.List(context.Background(), models.DefaultQuery())
		apiErr, ok := AsAPIError(err)
		if !ok {
			t.Fatalf("expected APIError, got %v", err)
		}
		if !errors.Is(err, shared.ErrServerError) || apiErr.Message != "database is locked" || apiErr.Status != 500 {
			t.Errorf("unexpected error %+v", apiErr)
		}
	})

	t.Run("Server Error With Unparseable Body", func(t *testing.T) {
		svc := newClientService(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(`<html>bad gateway</html>`))
		})

		_, err := svc.List(context.Background(), models.DefaultQuery())
		apiErr, _ := AsAPIError(err)
		if apiErr == nil || apiErr.Message != "" || apiErr.Status != http.StatusBadGateway {
			t.Errorf("expected empty message with status, got %v", err)
		}
		if err.Error() != "server error: status 502" {
			t.Errorf("unexpected error string %q", err.Error())
		}
	})

	t.Run("Malformed Body", func(t *testing.T) {
		svc := newClientService(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"rows":[]}`))
		})

		_, err := svc.List(context.Background(), models.DefaultQuery())
		if !errors.Is(err, shared.ErrMalformedResponse) {
			t.Errorf("expected ErrMalformedResponse, got %v", err)
		}
	})

	t.Run("Network Failure", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
		svc := NewRecordClient[models.Client](NewAPIService("http://desk", client), models.Clients, nil)

		_, err := svc.List(context.Background(), models.DefaultQuery())
		if !errors.Is(err, shared.ErrNetworkFailure) {
			t.Errorf("expected ErrNetworkFailure, got %v", err)
		}
	})
}

func TestRecordClientGet(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		svc := newClientService(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/clients/9" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			w.Write([]byte(`{"id":9,"surname":"Petrov","name":"Petr","phone":"+79990001122"}`))
		})

		got, err := svc.Get(context.Background(), 9)
		if err != nil || got.ID != 9 || got.Phone != "+79990001122" {
			t.Errorf("unexpected result %+v %v", got, err)
		}
	})

	t.Run("Not Found", func(t *testing.T) {
		svc := newClientService(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"client not found"}`))
		})

		_, err := svc.Get(context.Background(), 404)
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestRecordClientDelete(t *testing.T) {
	t.Run("Returns Server Payload", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodDelete || r.URL.Path != "/api/rooms/3" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			w.Write([]byte(`{"success":true,"message":"Room 101 removed"}`))
		}))
		defer server.Close()
		svc := NewRecordClient[models.Room](NewAPIService(server.URL, nil), models.Rooms, nil)

		got, err := svc.Delete(context.Background(), 3)
		if err != nil || !got.Success || got.Message != "Room 101 removed" {
			t.Errorf("unexpected result %+v %v", got, err)
		}
	})

	t.Run("Empty Body Means Success", func(t *testing.T) {
		svc := newClientService(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})

		got, err := svc.Delete(context.Background(), 1)
		if err != nil || !got.Success {
			t.Errorf("unexpected result %+v %v", got, err)
		}
	})
}

func TestRecordClientMutations(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		svc := newClientService(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/api/clients/add" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			var fields map[string]any
			body, _ := io.ReadAll(r.Body)
			json.Unmarshal(body, &fields)
			if fields["surname"] != "Sidorov" {
				t.Errorf("unexpected fields %v", fields)
			}
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"success":true,"id":12,"message":"created"}`))
		})

		got, err := svc.Create(context.Background(), map[string]any{"surname": "Sidorov"})
		if err != nil || got.ID != 12 {
			t.Errorf("unexpected result %+v %v", got, err)
		}
	})

	t.Run("Validation Failure", func(t *testing.T) {
		svc := newClientService(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"success":false,"errors":{"phone":"invalid phone"}}`))
		})

		_, err := svc.Update(context.Background(), 5, map[string]any{"phone": "x"})
		apiErr, ok := AsAPIError(err)
		if !ok || !errors.Is(err, shared.ErrValidationFailure) || apiErr.Fields["phone"] != "invalid phone" {
			t.Errorf("expected validation failure with field errors, got %v", err)
		}
	})

	t.Run("Bare Error Body", func(t *testing.T) {
		svc := newClientService(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid JSON"}`))
		})

		_, err := svc.Create(context.Background(), map[string]any{})
		if !errors.Is(err, shared.ErrServerError) {
			t.Errorf("expected ErrServerError, got %v", err)
		}
	})
}

func TestRecordClientEditForm(t *testing.T) {
	bodies := map[string]string{
		"Bare":         `{"id":2,"surname":"Kim"}`,
		"Data":         `{"success":true,"data":{"id":2,"surname":"Kim"}}`,
		"Record":       `{"success":true,"record":{"id":2,"surname":"Kim"}}`,
		"Unsuccessful": `{"success":false,"error":"locked"}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			svc := newClientService(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/clients/2/edit/form" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				w.Write([]byte(body))
			})

			got, err := svc.EditForm(context.Background(), 2)
			if name == "Unsuccessful" {
				if err == nil {
					t.Error("expected error for unsuccessful envelope")
				}
				return
			}
			if err != nil || got.ID != 2 || got.Surname != "Kim" {
				t.Errorf("unexpected result %+v %v", got, err)
			}
		})
	}
}

func TestAPIError(t *testing.T) {
	err := &APIError{Kind: shared.ErrNetworkFailure, Err: io.ErrUnexpectedEOF}

	if !errors.Is(err, shared.ErrNetworkFailure) || !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("expected both kind and cause to match")
	}
	if err.KindName() != "network" {
		t.Errorf("expected network, got %s", err.KindName())
	}
	if (&APIError{Kind: shared.ErrNotFound, Status: 404, Message: "gone"}).Error() != "not found (status 404): gone" {
		t.Error("unexpected error string")
	}
}
