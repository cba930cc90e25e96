package handler_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/splashpool/splashpool/internal/handler"
)

func TestHandler(t *testing.T) {
	tests := []struct {
		Name                string
		AcceptHeader        string
		ExpectedContentType string
		ExpectedStatus      int
		ExpectedResponse    []byte
		Handler             handler.Handler
	}{
		{"internal server error", "text/html", "text/plain; charset=utf-8", http.StatusInternalServerError, []byte("Something went wrong\n"), errorHandler},
		{"internal server error json", "application/json", "application/json", http.StatusInternalServerError, []byte("{\"error\":\"Something went wrong\"}\n"), errorHandler},
		{"bad request", "text/html", "text/plain; charset=utf-8", http.StatusBadRequest, []byte("Bad request test\n"), badRequestHandler},
		{"bad request json", "application/json", "application/json", http.StatusBadRequest, []byte("{\"error\":\"Bad request test\"}\n"), badRequestHandler},
		{"not found", "text/html", "text/plain; charset=utf-8", http.StatusNotFound, []byte("Not found test\n"), notFoundHandler},
		{"not found json", "application/json", "application/json", http.StatusNotFound, []byte("{\"error\":\"Not found test\"}\n"), notFoundHandler},
	}

	for _, test := range tests {
		ts := httptest.NewServer(handler.Handler(test.Handler))
		defer ts.Close()

		req, err := http.NewRequest("GET", ts.URL, nil)
		if err != nil {
			t.Errorf("%s: %s", test.Name, err)
			continue
		}

		req.Header.Set("Accept", test.AcceptHeader)

		res, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Errorf("%s: %s", test.Name, err)
			continue
		}

		defer res.Body.Close()

		if res.StatusCode != test.ExpectedStatus {
			t.Errorf("%s: wrong response code, %#v", test.Name, res.StatusCode)
			continue
		}

		contentType := res.Header.Get("Content-Type")
		if contentType != test.ExpectedContentType {
			t.Errorf("%s: wrong content type, %#v", test.Name, contentType)
			continue
		}

		cacheControl := res.Header.Get("Cache-Control")
		if cacheControl != "private, no-cache, no-store, must-revalidate" {
			t.Errorf("%s: wrong cache-control header, %#v", test.Name, cacheControl)
			continue
		}

		body, err := io.ReadAll(res.Body)
		if err != nil {
			t.Errorf("%s: %s", test.Name, err)
			continue
		}

		if !reflect.DeepEqual(body, test.ExpectedResponse) {
			t.Errorf("%s: wrong response %s", test.Name, body)
		}
	}
}

func TestHandlerNoError(t *testing.T) {
	ts := httptest.NewServer(handler.Handler(func(w http.ResponseWriter, r *http.Request) *handler.Error {
		w.Write([]byte("ok"))
		return nil
	}))
	defer ts.Close()

	res, err := http.Get(ts.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Errorf("wrong response code, %#v", res.StatusCode)
	}
}

func errorHandler(rw http.ResponseWriter, req *http.Request) *handler.Error {
	return handler.InternalServerError()
}

func badRequestHandler(rw http.ResponseWriter, req *http.Request) *handler.Error {
	return handler.BadRequest("Bad request test")
}

func notFoundHandler(rw http.ResponseWriter, req *http.Request) *handler.Error {
	return handler.NotFound("Not found test")
}
