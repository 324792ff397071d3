package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/deemkeen/chirp/domain"
	"github.com/deemkeen/chirp/social"
	"github.com/deemkeen/chirp/util"
	"github.com/deemkeen/chirp/view"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const xmlContentType = "application/xml; charset=utf-8"

type server struct {
	conf  *util.AppConfig
	store social.Reader
}

// NewRouter builds the read-only surface. Readers are anonymous: nothing is
// marked as liked, reposted or followed.
func NewRouter(conf *util.AppConfig, store social.Reader, limiter *RateLimiter) *gin.Engine {
	srv := &server{conf: conf, store: store}

	g := gin.Default()
	g.Use(gzip.Gzip(gzip.DefaultCompression))
	g.Use(RateLimitMiddleware(limiter))

	api := g.Group("/api")
	api.GET("/posts", srv.posts)
	api.GET("/profiles/:handle", srv.profile)
	api.GET("/suggestions", srv.suggestions)

	g.GET("/feed", srv.feed)
	g.GET("/feed/:id", srv.feedItem)

	return g
}

// Router serves HTTP until ctx is cancelled.
func Router(ctx context.Context, conf *util.AppConfig, store social.Reader) error {
	// 10 requests per second per IP, burst of 20
	limiter := NewRateLimiter(rate.Limit(10), 20)
	go limiter.Run(ctx)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", conf.Conf.Host, conf.Conf.HttpPort),
		Handler:           NewRouter(conf, store, limiter),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("http shutdown", "err", err)
		}
	}()

	log.Info("starting http server", "addr", httpServer.Addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (srv *server) snapshot(c *gin.Context) (*social.Snapshot, bool) {
	s, err := social.Fetch(c.Request.Context(), srv.store, domain.Profile{}, time.Now())
	if err != nil {
		log.Error("fetch for http request failed", "path", c.FullPath(), "err", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "could not load posts"})
		return nil, false
	}
	return s, true
}

func (srv *server) posts(c *gin.Context) {
	s, ok := srv.snapshot(c)
	if !ok {
		return
	}
	page := view.Derive(s, view.State{Name: view.Explore, Query: c.Query("q")})
	c.JSON(http.StatusOK, page)
}

func (srv *server) profile(c *gin.Context) {
	s, ok := srv.snapshot(c)
	if !ok {
		return
	}
	st := view.State{Name: view.Profile, Handle: c.Param("handle"), Tab: view.ParseTab(c.Query("tab"))}
	page := view.Derive(s, st)
	if !page.Profile.Known {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown handle"})
		return
	}
	c.JSON(http.StatusOK, page)
}

func (srv *server) suggestions(c *gin.Context) {
	s, ok := srv.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"profiles": view.Suggestions(s)})
}

func (srv *server) feed(c *gin.Context) {
	s, ok := srv.snapshot(c)
	if !ok {
		return
	}
	rss, err := GetRSS(srv.conf, s, c.Query("handle"))
	if errors.Is(err, ErrUnknownHandle) {
		c.Status(http.StatusNotFound)
		return
	}
	if err != nil {
		log.Error("rendering rss", "err", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, xmlContentType, []byte(rss))
}

func (srv *server) feedItem(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	s, ok := srv.snapshot(c)
	if !ok {
		return
	}
	rss, err := GetRSSItem(srv.conf, s, id)
	if errors.Is(err, social.ErrPostNotFound) {
		c.Status(http.StatusNotFound)
		return
	}
	if err != nil {
		log.Error("rendering rss item", "id", id, "err", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, xmlContentType, []byte(rss))
}
