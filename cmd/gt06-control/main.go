// Command gt06-control hosts the reference HTTP implementation of the
// operator control surface spec.md §1 leaves abstract: a thin router whose
// handlers do nothing but parse the request and call into pkg/control.
package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/fleetwire/gt06-gateway/pkg/config"
	"github.com/fleetwire/gt06-gateway/pkg/control"
	"github.com/fleetwire/gt06-gateway/pkg/eventlog"
	"github.com/fleetwire/gt06-gateway/pkg/metrics"
	"github.com/fleetwire/gt06-gateway/pkg/session"
)

// gt06-control is deployed as its own process: spec.md §1 places the
// control surface out of the core's scope. It owns its own Registry, which
// starts empty and into which no device session is ever bound in this
// process: it does not read cmd/gt06-server's registry or the admin feed,
// so /sessions lists nothing and every command answers not_connected. The
// collector served at /metrics likewise belongs to this process and is not
// fed by any session.
func main() {
	cfg := config.Parse()

	base := logrus.New()
	log := eventlog.New(base)

	registry := session.NewRegistry(log)
	collector := metrics.New()
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collector)

	surface := control.New(registry, cfg.ListenPort)

	r := gin.Default()
	registerRoutes(r, surface)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(promReg, promhttp.HandlerOpts{})))

	r.Run(":" + itoa(cfg.ControlPort))
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [12]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

func registerRoutes(r *gin.Engine, surface *control.Surface) {
	r.GET("/sessions", func(c *gin.Context) {
		c.JSON(http.StatusOK, surface.ListSessions())
	})

	r.GET("/sessions/:identifier", func(c *gin.Context) {
		id := c.Param("identifier")
		view, ok := surface.GetSession(id)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		c.JSON(http.StatusOK, view)
	})

	r.POST("/sessions/:identifier/command", func(c *gin.Context) {
		id := c.Param("identifier")
		var body struct {
			Text string `json:"text" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		respondAccepted(c, surface.SendCommand(id, body.Text))
	})

	r.POST("/sessions/:identifier/immobilize", func(c *gin.Context) {
		respondAccepted(c, surface.Immobilize(c.Param("identifier")))
	})
	r.POST("/sessions/:identifier/mobilize", func(c *gin.Context) {
		respondAccepted(c, surface.Mobilize(c.Param("identifier")))
	})
	r.POST("/sessions/:identifier/status", func(c *gin.Context) {
		respondAccepted(c, surface.RequestStatus(c.Param("identifier")))
	})
	r.POST("/sessions/:identifier/location", func(c *gin.Context) {
		respondAccepted(c, surface.RequestLocation(c.Param("identifier")))
	})
	r.POST("/sessions/:identifier/battery", func(c *gin.Context) {
		respondAccepted(c, surface.RequestBattery(c.Param("identifier")))
	})

	r.POST("/sessions/:identifier/battery-interval", func(c *gin.Context) {
		id := c.Param("identifier")
		var body struct {
			Minutes int `json:"minutes" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		respondAccepted(c, surface.ConfigureBatteryReporting(id, body.Minutes))
	})

	r.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, surface.GetStats())
	})
}

func respondAccepted(c *gin.Context, accepted bool) {
	if !accepted {
		c.JSON(http.StatusConflict, gin.H{"status": "not_connected"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "accepted"})
}
