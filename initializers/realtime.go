package initializers

import (
	"log"
	"os"
	"time"

	"github.com/lib/pq"
)

// ChangeChannel is the NOTIFY channel the backend publishes row changes on.
// Each notification payload is a JSON object with the changed table and,
// where applicable, the owning user id.
const ChangeChannel = "cryoutnow_changes"

// ConnectListener opens the change feed connection. The listener reconnects
// on its own; connection events are only logged.
func ConnectListener() *pq.Listener {
	dsn := os.Getenv("DB_URL")

	listener := pq.NewListener(dsn, 10*time.Second, time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Printf("change feed connection event %d: %v", ev, err)
			}
		})

	if err := listener.Listen(ChangeChannel); err != nil {
		log.Fatal(err)
	}

	return listener
}
