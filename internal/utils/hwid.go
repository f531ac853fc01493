package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"os"

	"github.com/denisbrodbeck/machineid"
)

const hwidAppID = "macropath"

// HWID identifies this device to the api and seeds the local credential key.
var HWID = deviceID()

func deviceID() string {
	id, err := machineid.ProtectedID(hwidAppID)
	if err == nil && id != "" {
		return id
	}

	// containers often have no machine-id; fall back to a stable hostname hash
	host, _ := os.Hostname()
	sum := sha256.Sum256([]byte(hwidAppID + ":" + host))
	return hex.EncodeToString(sum[:])
}
