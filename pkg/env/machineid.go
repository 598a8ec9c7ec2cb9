// Package env provides facts about the host machine.
package env

import (
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// AppID salts the machine ID so it is not exposed as is.
const AppID = "xbee.go"

// idLen is the length of IDs used in topics and client IDs.
const idLen = 12

// MachineID retrieves a stable ID identifying the machine. It falls
// back to the host name when the platform provides no machine ID.
func MachineID() string {
	id, err := machineid.ProtectedID(AppID)
	if err == nil {
		if len(id) > idLen {
			id = id[:idLen]
		}
		return id
	}
	glog.Warningf("machine id unavailable: %v", err)
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "xbee"
}
