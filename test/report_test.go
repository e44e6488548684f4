//go:build integration

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/2beens/teamcondition/internal/condition/dashboard"
	"github.com/2beens/teamcondition/internal/condition/pipeline"
	"github.com/2beens/teamcondition/internal/condition/store"
	"github.com/2beens/teamcondition/internal/middleware"
)

func pingServer(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", serverEndpoint+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health status: %d", resp.StatusCode)
	}
	return nil
}

func (s *IntegrationTestSuite) doRequest(method, path, token string, body any) (int, []byte) {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		s.Require().NoError(err)
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, serverEndpoint+path, reqBody)
	s.Require().NoError(err)
	req.Header.Set("User-Agent", "test-agent")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(middleware.TokenHeader, token)
	}

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp.StatusCode, respBytes
}

func (s *IntegrationTestSuite) TestMetricsAreOpen() {
	status, body := s.doRequest("GET", "/api/metrics", "", nil)
	s.Equal(http.StatusOK, status)
	s.Contains(string(body), `"title":"kyosera データ"`)
}

func (s *IntegrationTestSuite) TestReportNeedsViewerToken() {
	status, _ := s.doRequest("POST", "/api/report", "", dashboard.ReportRequest{})
	s.Equal(http.StatusUnauthorized, status)

	status, _ = s.doRequest("POST", "/api/report", "wrong", dashboard.ReportRequest{})
	s.Equal(http.StatusUnauthorized, status)
}

func (s *IntegrationTestSuite) TestOptions() {
	status, body := s.doRequest("GET", "/api/options", testViewerToken, nil)
	s.Require().Equal(http.StatusOK, status, string(body))

	var opts pipeline.Options
	s.Require().NoError(json.Unmarshal(body, &opts))
	s.Equal([]string{"A", "B"}, opts.Entities)
	s.Contains(opts.Metrics, "CK")
}

func (s *IntegrationTestSuite) TestReport() {
	req := dashboard.ReportRequest{
		Selection: dashboard.SelectionRequest{
			Entities: []string{"A", "B"},
			Start:    "2024-01-05",
			End:      "2024-01-20",
			Metrics:  []string{"CK"},
		},
	}

	status, body := s.doRequest("POST", "/api/report", testViewerToken, req)
	s.Require().Equal(http.StatusOK, status, string(body))

	var report dashboard.Report
	s.Require().NoError(json.Unmarshal(body, &report))
	s.Equal(store.SourcePostgres, report.Source)
	s.Equal(testTeam, report.Tenant)
	s.Require().Len(report.Charts, 1)
	s.Len(report.Charts[0].Series, 2)

	// the february reading of B is outside the period
	points := 0
	for _, series := range report.Charts[0].Series {
		points += len(series.Points)
	}
	s.Equal(3, points)
}

func (s *IntegrationTestSuite) TestReportRejectsInvertedPeriod() {
	req := dashboard.ReportRequest{
		Selection: dashboard.SelectionRequest{
			Entities: []string{"A"},
			Start:    "2024-02-01",
			End:      "2024-01-01",
			Metrics:  []string{"CK"},
		},
	}

	status, body := s.doRequest("POST", "/api/report", testViewerToken, req)
	s.Equal(http.StatusBadRequest, status)
	s.True(strings.Contains(string(body), dashboard.KindValidation))
}

func (s *IntegrationTestSuite) TestRefreshReadsNewRows() {
	ctx := context.Background()
	_, err := s.DB.ExecContext(ctx, `INSERT INTO public.condition (team, name, measurement_date, fiscal_year, camp_number, ck) VALUES ('kyosera', 'D', '2024-03-01', 2024, 3, 150)`)
	s.Require().NoError(err)
	defer func() {
		_, err := s.DB.ExecContext(ctx, `DELETE FROM public.condition WHERE name = 'D'`)
		s.NoError(err)
	}()

	status, _ := s.doRequest("POST", "/api/cache/refresh", testViewerToken, nil)
	s.Require().Equal(http.StatusOK, status)

	status, body := s.doRequest("GET", "/api/options", testViewerToken, nil)
	s.Require().Equal(http.StatusOK, status)
	var opts pipeline.Options
	s.Require().NoError(json.Unmarshal(body, &opts))
	s.Contains(opts.Entities, "D")
}
