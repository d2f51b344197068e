package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fairtouch/fairtouch/internal/adapters/http/api"
	app "github.com/fairtouch/fairtouch/internal/app"
	"github.com/fairtouch/fairtouch/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func newTestServer() *httptest.Server {
	_ = logger.Init()
	svc := app.New(app.WithExactLimit(6), app.WithDefaultSamples(1000))
	if err := svc.Start(context.Background()); err != nil {
		panic(err)
	}

	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

func journeyBody(n int, extra string) []byte {
	var buf bytes.Buffer
	buf.WriteString(`{"touchpoints":[`)
	base := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, `{"id":"tp-%d","kind":"media","timestamp":%q}`,
			i, base.Add(time.Duration(i)*time.Minute).Format(time.RFC3339))
	}
	buf.WriteString(`]`)
	if extra != "" {
		buf.WriteByte(',')
		buf.WriteString(extra)
	}
	buf.WriteString(`}`)
	return buf.Bytes()
}

func postAttribution(ts *httptest.Server, body []byte) (*http.Response, map[string]any) {
	resp, err := http.Post(ts.URL+"/attributions", "application/json", bytes.NewReader(body))
	So(err, ShouldBeNil)
	defer resp.Body.Close()

	var decoded map[string]any
	So(json.NewDecoder(resp.Body).Decode(&decoded), ShouldBeNil)
	return resp, decoded
}

func TestPostAttribution(t *testing.T) {
	Convey("Given a running attribution API", t, func() {
		ts := newTestServer()
		defer ts.Close()

		Convey("When posting a four-touchpoint journey", func() {
			resp, body := postAttribution(ts, journeyBody(4, ""))

			Convey("Then the response carries a normalized exact attribution", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["method"], ShouldEqual, "exact")
				So(body["sample_count"], ShouldEqual, 24)

				values := body["values"].(map[string]any)
				So(len(values), ShouldEqual, 4)
				sum := 0.0
				for _, v := range values {
					sum += v.(float64)
				}
				So(sum, ShouldAlmostEqual, 1.0, 1e-9)
				So(body["computation_id"], ShouldNotBeEmpty)
			})
		})

		Convey("When posting a journey past the exact limit", func() {
			resp, body := postAttribution(ts, journeyBody(7, `"seed":17`))

			Convey("Then it auto-routes to Monte Carlo", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["method"], ShouldEqual, "monte_carlo")
				So(body["sample_count"], ShouldEqual, 1000)
			})
		})

		Convey("When forcing exact past the limit", func() {
			resp, body := postAttribution(ts, journeyBody(7, `"method_hint":"exact"`))

			Convey("Then the request is refused with a stable kind", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
				So(body["error_kind"], ShouldEqual, "exact_limit_exceeded")
			})
		})

		Convey("When the touchpoint list is empty", func() {
			resp, body := postAttribution(ts, []byte(`{"touchpoints":[]}`))

			Convey("Then the empty input kind is reported", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
				So(body["error_kind"], ShouldEqual, "empty_input")
			})
		})

		Convey("When a duplicate touchpoint id is supplied", func() {
			body := []byte(`{"touchpoints":[
				{"id":"tp-0","kind":"media","timestamp":"2025-06-10T09:00:00Z"},
				{"id":"tp-0","kind":"media","timestamp":"2025-06-10T10:00:00Z"}]}`)
			resp, decoded := postAttribution(ts, body)

			Convey("Then it is rejected as an empty-input-class error", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
				So(decoded["error_kind"], ShouldEqual, "empty_input")
			})
		})

		Convey("When an explicit zero sample count is supplied", func() {
			resp, body := postAttribution(ts, journeyBody(7, `"monte_carlo_samples":0`))

			Convey("Then the invalid sample kind is reported", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
				So(body["error_kind"], ShouldEqual, "invalid_sample_count")
			})
		})

		Convey("When a timestamp is malformed", func() {
			body := []byte(`{"touchpoints":[{"id":"tp-0","kind":"media","timestamp":"yesterday"}]}`)
			resp, decoded := postAttribution(ts, body)

			Convey("Then the request shape is rejected", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
				So(decoded["error_kind"], ShouldEqual, "bad_request")
			})
		})
	})
}

func TestGetResult(t *testing.T) {
	Convey("Given a running attribution API", t, func() {
		ts := newTestServer()
		defer ts.Close()

		Convey("When attributing with an outcome id and reading it back", func() {
			resp, posted := postAttribution(ts, journeyBody(3, `"outcome_id":"order-9"`))
			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			getResp, err := http.Get(ts.URL + "/attributions/order-9")
			So(err, ShouldBeNil)
			defer getResp.Body.Close()
			var fetched map[string]any
			So(json.NewDecoder(getResp.Body).Decode(&fetched), ShouldBeNil)

			Convey("Then the persisted result matches the computed one", func() {
				So(getResp.StatusCode, ShouldEqual, http.StatusOK)
				So(fetched["computation_id"], ShouldEqual, posted["computation_id"])
				So(fetched["outcome_id"], ShouldEqual, "order-9")
			})
		})

		Convey("When reading an unknown outcome", func() {
			getResp, err := http.Get(ts.URL + "/attributions/order-unknown")
			So(err, ShouldBeNil)
			defer getResp.Body.Close()
			var body map[string]any
			So(json.NewDecoder(getResp.Body).Decode(&body), ShouldBeNil)

			Convey("Then a 404 with the not_found kind is returned", func() {
				So(getResp.StatusCode, ShouldEqual, http.StatusNotFound)
				So(body["error_kind"], ShouldEqual, "not_found")
			})
		})
	})
}

func TestStats(t *testing.T) {
	Convey("Given a running attribution API", t, func() {
		ts := newTestServer()
		defer ts.Close()

		Convey("When requesting stats", func() {
			resp, err := http.Get(ts.URL + "/stats")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			var stats map[string]any
			So(json.NewDecoder(resp.Body).Decode(&stats), ShouldBeNil)

			Convey("Then the snapshot includes service configuration", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(stats["started"], ShouldEqual, true)
				So(stats["exactLimit"], ShouldEqual, 6)
			})
		})
	})
}
