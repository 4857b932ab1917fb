package controllers

import (
	"net/http"
	"strconv"

	"github.com/dinewell/tableside/fanout"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// FanoutController upgrades subscriber connections and scopes them to the
// topics their role is allowed to watch.
type FanoutController struct {
	Hub *fanout.Hub
}

func NewFanoutController(hub *fanout.Hub) *FanoutController {
	return &FanoutController{Hub: hub}
}

// Subscribe -> websocket endpoint; ?location_id=&role= pick the topics
func (fc *FanoutController) Subscribe(c *gin.Context) {
	locationID, err := queryUint(c, "location_id")
	if err != nil {
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	role := c.Query("role")
	var topics []string
	switch role {
	case "waiter":
		topics = []string{fanout.WaiterTopic(locationID), fanout.LocationTopic(locationID)}
	case "kitchen":
		topics = []string{fanout.KitchenTopic(locationID), fanout.LocationTopic(locationID)}
	case "customer", "":
		topics = []string{fanout.CustomerTopic(locationID), fanout.LocationTopic(locationID)}
	default:
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	fc.Hub.Register(ws, topics...)

	// Block until the subscriber disconnects; inbound frames are ignored,
	// the transport only moves events outward.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
	fc.Hub.Unregister(ws)
}

func queryUint(c *gin.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Query(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(v), nil
}
