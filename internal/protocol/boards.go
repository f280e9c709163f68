// internal/protocol/boards.go
package protocol

import "strings"

// BoardInfo identifies a USB serial bridge by its vendor and product ID
type BoardInfo struct {
	Vendor string `json:"vendor"`
	Model  string `json:"model,omitempty"`
	// Receiver is set for boards the IR receiver and transmitter sketches
	// are usually flashed on
	Receiver bool `json:"receiver"`
}

type vendorInfo struct {
	name     string
	receiver bool
	products map[string]string
}

// knownBoards is keyed by lower case hex vendor ID
var knownBoards = map[string]vendorInfo{
	"2341": {name: "Arduino", receiver: true, products: map[string]string{
		"0043": "Uno R3",
		"0042": "Mega 2560 R3",
		"8036": "Leonardo",
		"8037": "Micro",
		"0058": "Nano Every",
	}},
	"2a03": {name: "Arduino", receiver: true, products: map[string]string{
		"0043": "Uno R3",
		"8036": "Leonardo",
	}},
	"1b4f": {name: "SparkFun", receiver: true, products: map[string]string{
		"9205": "Pro Micro 5V",
		"9206": "Pro Micro 3.3V",
	}},
	"16c0": {name: "PJRC", receiver: true, products: map[string]string{
		"0483": "Teensy",
	}},
	"0403": {name: "FTDI", receiver: true, products: map[string]string{
		"6001": "FT232R",
		"6015": "FT231X",
	}},
	"1a86": {name: "WCH", receiver: true, products: map[string]string{
		"7523": "CH340",
		"55d4": "CH9102",
	}},
	"10c4": {name: "Silicon Labs", products: map[string]string{
		"ea60": "CP210x",
	}},
	"067b": {name: "Prolific", products: map[string]string{
		"2303": "PL2303",
	}},
}

// LookupBoard returns what is known about a USB vendor and product ID. The
// IDs are hex strings as reported by the port enumerator.
func LookupBoard(vid, pid string) (BoardInfo, bool) {
	vendor, ok := knownBoards[strings.ToLower(vid)]
	if !ok {
		return BoardInfo{}, false
	}
	return BoardInfo{
		Vendor:   vendor.name,
		Model:    vendor.products[strings.ToLower(pid)],
		Receiver: vendor.receiver,
	}, true
}
