package rest_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/hikiquest/server/api/rest"
	"github.com/kasuganosora/hikiquest/server/cache"
	"github.com/kasuganosora/hikiquest/server/config"
	"github.com/kasuganosora/hikiquest/server/intake"
	mw "github.com/kasuganosora/hikiquest/server/middleware"
	"github.com/kasuganosora/hikiquest/server/quest"
	"github.com/kasuganosora/hikiquest/server/scheduler"
	"github.com/kasuganosora/hikiquest/server/store"
	"github.com/kasuganosora/hikiquest/server/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testAdminKey = "admin-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type env struct {
	r   *gin.Engine
	db  *gorm.DB
	c   cache.Cache
	sec config.SecurityConfig
}

// newEnv wires every handler the way main does, without rate limits.
func newEnv(t *testing.T, narrator quest.Narrator) *env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	c, _ := testutil.SetupTestCache(t)
	sec := config.SecurityConfig{JWTSecret: "test-secret", JWTTTLH: 72 * time.Hour}
	logger := zap.NewNop()

	profiles := store.NewProfileStore(db)
	sets := store.NewQuestSetStore(db)
	questSvc := quest.NewService(quest.Options{
		Profiles: profiles,
		Sets:     sets,
		Narrator: narrator,
		Timeout:  time.Second,
		Locker:   c,
		Logger:   logger,
	})
	intakeSvc := intake.NewService(intake.Options{Cache: c, Saver: questSvc, Logger: logger})
	sched := scheduler.New(logger)
	t.Cleanup(sched.Stop)

	var health rest.HealthReporter
	if h, ok := narrator.(rest.HealthReporter); ok {
		health = h
	}

	authH := rest.NewAuthHandler(db, c, sec, nil, logger)
	profileH := rest.NewProfileHandler(questSvc)
	questH := rest.NewQuestHandler(questSvc)
	intakeH := rest.NewIntakeHandler(intakeSvc)
	adminH := rest.NewAdminHandler(rest.AdminDeps{
		DB: db, Profiles: profiles, Sets: sets, Narrator: health,
		Scheduler: sched, Cache: c, Logger: logger,
	})
	healthH := rest.NewHealthHandler(db, health)

	r := gin.New()
	r.GET("/health", healthH.Health)
	api := r.Group("/api")
	auth := mw.Auth(sec, c)

	authG := api.Group("/auth")
	authG.POST("/login", authH.Login)
	authG.POST("/logout", auth, authH.Logout)
	authG.POST("/refresh", auth, authH.Refresh)

	intakeG := api.Group("/intake", auth)
	intakeG.GET("/questions", intakeH.Questions)
	intakeG.GET("", intakeH.Current)
	intakeG.POST("/start", intakeH.Start)
	intakeG.POST("/answer", intakeH.Answer)

	profileG := api.Group("/profile", auth)
	profileG.GET("", profileH.Get)
	profileG.PUT("", profileH.Put)
	profileG.GET("/stage", profileH.Stage)

	questG := api.Group("/quests", auth)
	questG.POST("/generate", questH.Generate)
	questG.GET("/latest", questH.Latest)
	questG.GET("/status", questH.Status)
	questG.GET("/history", questH.History)
	questG.POST("/:quest_id/complete", questH.Complete)

	adminG := api.Group("/admin", mw.AdminAuth(testAdminKey))
	adminG.GET("/metrics", adminH.Metrics)
	adminG.POST("/accounts/:id/ban", adminH.BanAccount)
	adminG.GET("/accounts/:id/audit", adminH.AccountAudit)
	adminG.GET("/scheduler", adminH.ListSchedulerTasks)

	return &env{r: r, db: db, c: c, sec: sec}
}

func doJSON(r *gin.Engine, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func postJSON(r *gin.Engine, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	return doJSON(r, http.MethodPost, path, body, headers...)
}

func bearer(token string) []string {
	return []string{"Authorization", "Bearer " + token}
}

// login registers or logs in a user and returns the token and account ID.
func (e *env) login(t *testing.T, username string) (string, int64) {
	t.Helper()
	w := postJSON(e.r, "/api/auth/login", map[string]string{"username": username, "password": "pass1234"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Token     string `json:"token"`
		AccountID int64  `json:"account_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token, resp.AccountID
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func sampleProfile() quest.Profile {
	var p quest.Profile
	p.Name = "김민수"
	p.Age = 24
	p.MentalState.AnxietyLevel = 5
	p.Interests.Likes = []string{"힙합"}
	p.DigitalBehavior.Platforms = []string{"유튜브"}
	return p
}
