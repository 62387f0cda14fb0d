package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/profilewatch/config"
	"sjsage522/profilewatch/helpers"
	"sjsage522/profilewatch/internal"
	"sjsage522/profilewatch/internal/browser"
	"sjsage522/profilewatch/internal/classifier"
	"sjsage522/profilewatch/internal/profile"
	"sjsage522/profilewatch/internal/server"
	"sjsage522/profilewatch/services/monitor"
	"sjsage522/profilewatch/services/store"
)

// Server-rendered profile pages shaped like the live site
var testPages = map[string]string{
	"/jack/": `<!DOCTYPE html>
<html><body>
<div data-testid="UserName">
    <span>Jack</span><span>@jack</span>
    <svg aria-label="Verified" viewBox="0 0 22 22"></svg>
</div>
<a href="/jack/following" role="link"><span><span>1,234</span></span><span>Following</span></a>
<a href="/jack/verified_followers" role="link"><span><span>6.9M</span></span><span>Followers</span></a>
</body></html>`,
	"/bot/": `<!DOCTYPE html>
<html><body>
<div data-testid="UserName"><span>Bot</span><span>@bot</span></div>
<a href="/bot/following"><span><span>4,800</span></span><span>Following</span></a>
<a href="/bot/verified_followers"><span><span>12</span></span><span>Followers</span></a>
<a href="/bot/subscriptions"><span>3</span></a>
</body></html>`,
	"/ghost/": `<!DOCTYPE html>
<html><body><div class="error">This account doesn't exist</div></body></html>`,
}

func newProfileSite(t *testing.T) *httptest.Server {
	t.Helper()
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, ok := testPages[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(page))
	}))
	t.Cleanup(site.Close)
	return site
}

func TestMonitorEndToEnd(t *testing.T) {
	gin.SetMode(gin.TestMode)
	site := newProfileSite(t)

	booster, err := classifier.LoadModel(filepath.Join("internal", "classifier", "testdata", "model.json"))
	require.NoError(t, err)
	clf, err := classifier.New(booster, classifier.DefaultThreshold)
	require.NoError(t, err)

	cfg := &config.Config{
		LocatorSet:         config.LocatorSetPrimary,
		ProfileURLTemplate: site.URL + "/%s/",
		PageReadyTimeout:   time.Second,
		LocatorTimeout:     50 * time.Millisecond,
		LocatorAttempts:    1,
	}
	extractor := newExtractor(cfg, clf)

	dbPath := filepath.Join(t.TempDir(), "profiles.db")
	failures := helpers.NewFailureLog(filepath.Join(t.TempDir(), "failures.log"))
	deps := internal.Dependencies{
		Launcher: browser.NewStaticLauncher(nil),
		Store:    store.NewSQLiteOpener(dbPath),
		Failures: failures,
	}

	registry := prometheus.NewRegistry()
	m := monitor.NewMonitor(deps, extractor, helpers.NoDelay, monitor.NewMetrics(registry))
	srv := server.NewServer(m, nil, registry)

	body, _ := json.Marshal(map[string][]string{"profiles": {"jack", "ghost", "bot"}})
	req := httptest.NewRequest(http.MethodPost, "/monitor", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var results []monitor.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	assert.Equal(t, []monitor.Result{
		{Username: "jack", Status: profile.StatusGenuine},
		{Username: "bot", Status: profile.StatusFake},
	}, results)

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()

	type row struct {
		username      string
		followers     int64
		following     int64
		subscriptions int64
		verified      bool
		status        string
	}
	rows, err := db.Query(`SELECT username, followers_count, following_count, subscriptions_count, is_verified, status FROM profiles ORDER BY id`)
	require.NoError(t, err)
	defer rows.Close()

	var stored []row
	for rows.Next() {
		var r row
		require.NoError(t, rows.Scan(&r.username, &r.followers, &r.following, &r.subscriptions, &r.verified, &r.status))
		stored = append(stored, r)
	}
	require.NoError(t, rows.Err())

	assert.Equal(t, []row{
		{"jack", 6_900_000, 1234, 0, true, "Genuine"},
		{"bot", 12, 4800, 3, false, "Fake"},
	}, stored)
}

func TestNewExtractorLegacyLocators(t *testing.T) {
	site := newProfileSite(t)

	cfg := &config.Config{
		LocatorSet:         config.LocatorSetLegacy,
		ProfileURLTemplate: site.URL + "/%s/",
		PageReadyTimeout:   time.Second,
		LocatorTimeout:     10 * time.Millisecond,
		LocatorAttempts:    1,
	}
	labeler, err := classifier.New(scoreFunc(func(classifier.FeatureVector) float64 { return 1 }), classifier.LegacyThreshold)
	require.NoError(t, err)

	// Equivalent of t.Context(), which needs Go 1.24+
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	session, err := browser.NewStaticLauncher(nil).Launch(ctx)
	require.NoError(t, err)
	defer session.Close()

	// The legacy set only has XPath locators, which a static document cannot evaluate
	_, err = newExtractor(cfg, labeler).Extract(ctx, session, "jack")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header_not_found")
}

type scoreFunc func(classifier.FeatureVector) float64

func (f scoreFunc) Score(v classifier.FeatureVector) float64 { return f(v) }
