package xbee

import "fmt"

// AtCommandStatus is the status of an AT command response.
type AtCommandStatus byte

// AT command status codes.
const (
	AtStatusOK               AtCommandStatus = 0x00
	AtStatusError            AtCommandStatus = 0x01
	AtStatusInvalidCommand   AtCommandStatus = 0x02
	AtStatusInvalidParameter AtCommandStatus = 0x03
	AtStatusTxFailure        AtCommandStatus = 0x04
)

var atCommandStatusNames = map[AtCommandStatus]string{
	AtStatusOK:               "OK",
	AtStatusError:            "Error",
	AtStatusInvalidCommand:   "InvalidCommand",
	AtStatusInvalidParameter: "InvalidParameter",
	AtStatusTxFailure:        "TxFailure",
}

// ParseAtCommandStatus converts a wire byte. Unknown codes are returned
// together with an UnknownStatusError.
func ParseAtCommandStatus(b byte) (AtCommandStatus, error) {
	s := AtCommandStatus(b)
	if _, ok := atCommandStatusNames[s]; !ok {
		return s, &UnknownStatusError{Kind: "AtCommandStatus", Code: b}
	}
	return s, nil
}

// String implements fmt.Stringer.
func (s AtCommandStatus) String() string {
	return statusName("AtCommandStatus", atCommandStatusNames[s], byte(s))
}

// TxStatus is the delivery status of a TransmitStatus.
type TxStatus byte

// Transmit delivery status codes.
const (
	TxSuccess                    TxStatus = 0x00
	TxNoAck                      TxStatus = 0x01
	TxCcaFailure                 TxStatus = 0x02
	TxInvalidDestination         TxStatus = 0x15
	TxNetworkAckFailure          TxStatus = 0x21
	TxNotConnected               TxStatus = 0x22
	TxSelfAddressed              TxStatus = 0x23
	TxAddressNotFound            TxStatus = 0x24
	TxRouteNotFound              TxStatus = 0x25
	TxBroadcastSourceFailed      TxStatus = 0x26 // no neighbor relayed the broadcast
	TxInvalidBindingTableIndex   TxStatus = 0x2B
	TxResourceError              TxStatus = 0x2C // lack of free buffers, timers, etc.
	TxAttemptedBroadcast         TxStatus = 0x2D // with APS transmission
	TxAttemptedUnicast           TxStatus = 0x2E // with APS transmission, but EE=0
	TxInternalError              TxStatus = 0x31
	TxResourceDepletion          TxStatus = 0x32
	TxPayloadTooLarge            TxStatus = 0x74
	TxIndirectMessageUnrequested TxStatus = 0x75
)

var txStatusNames = map[TxStatus]string{
	TxSuccess:                    "Success",
	TxNoAck:                      "NoAck",
	TxCcaFailure:                 "CcaFailure",
	TxInvalidDestination:         "InvalidDestination",
	TxNetworkAckFailure:          "NetworkAckFailure",
	TxNotConnected:               "NotConnected",
	TxSelfAddressed:              "SelfAddressed",
	TxAddressNotFound:            "AddressNotFound",
	TxRouteNotFound:              "RouteNotFound",
	TxBroadcastSourceFailed:      "BroadcastSourceFailed",
	TxInvalidBindingTableIndex:   "InvalidBindingTableIndex",
	TxResourceError:              "ResourceError",
	TxAttemptedBroadcast:         "AttemptedBroadcast",
	TxAttemptedUnicast:           "AttemptedUnicast",
	TxInternalError:              "InternalError",
	TxResourceDepletion:          "ResourceDepletion",
	TxPayloadTooLarge:            "PayloadTooLarge",
	TxIndirectMessageUnrequested: "IndirectMessageUnrequested",
}

// ParseTxStatus converts a wire byte. Unknown codes are returned
// together with an UnknownStatusError.
func ParseTxStatus(b byte) (TxStatus, error) {
	s := TxStatus(b)
	if _, ok := txStatusNames[s]; !ok {
		return s, &UnknownStatusError{Kind: "TxStatus", Code: b}
	}
	return s, nil
}

// String implements fmt.Stringer.
func (s TxStatus) String() string {
	return statusName("TxStatus", txStatusNames[s], byte(s))
}

// ModemStatus is the status reported by a ModemStatusFrame.
type ModemStatus byte

// Modem status codes.
const (
	ModemHardwareReset          ModemStatus = 0x00
	ModemWatchdogReset          ModemStatus = 0x01
	ModemJoinedNetwork          ModemStatus = 0x02
	ModemDissociated            ModemStatus = 0x03
	ModemCoordinatorStarted     ModemStatus = 0x06
	ModemNetworkSecurityUpdated ModemStatus = 0x07
	ModemInputVoltageTooHigh    ModemStatus = 0x0D
	ModemConfigurationChanged   ModemStatus = 0x11 // while join in progress
	ModemStackError             ModemStatus = 0x80
)

var modemStatusNames = map[ModemStatus]string{
	ModemHardwareReset:          "HardwareReset",
	ModemWatchdogReset:          "WatchdogReset",
	ModemJoinedNetwork:          "JoinedNetwork",
	ModemDissociated:            "Dissociated",
	ModemCoordinatorStarted:     "CoordinatorStarted",
	ModemNetworkSecurityUpdated: "NetworkSecurityUpdated",
	ModemInputVoltageTooHigh:    "InputVoltageTooHigh",
	ModemConfigurationChanged:   "ConfigurationChanged",
	ModemStackError:             "StackError",
}

// ParseModemStatus converts a wire byte. Unknown codes are returned
// together with an UnknownStatusError.
func ParseModemStatus(b byte) (ModemStatus, error) {
	s := ModemStatus(b)
	if _, ok := modemStatusNames[s]; !ok {
		return s, &UnknownStatusError{Kind: "ModemStatus", Code: b}
	}
	return s, nil
}

// String implements fmt.Stringer.
func (s ModemStatus) String() string {
	return statusName("ModemStatus", modemStatusNames[s], byte(s))
}

// DiscoStatus is the discovery status of a TransmitStatus.
type DiscoStatus byte

// Discovery status codes.
const (
	DiscoNoOverhead               DiscoStatus = 0x00
	DiscoAddressDiscovery         DiscoStatus = 0x01
	DiscoRouteDiscovery           DiscoStatus = 0x02
	DiscoAddressAndRoute          DiscoStatus = 0x03
	DiscoExtendedTimeoutDiscovery DiscoStatus = 0x40
)

var discoStatusNames = map[DiscoStatus]string{
	DiscoNoOverhead:               "NoDiscoveryOverhead",
	DiscoAddressDiscovery:         "AddressDiscovery",
	DiscoRouteDiscovery:           "RouteDiscovery",
	DiscoAddressAndRoute:          "AddressAndRoute",
	DiscoExtendedTimeoutDiscovery: "ExtendedTimeoutDiscovery",
}

// ParseDiscoStatus converts a wire byte. Unknown codes are returned
// together with an UnknownStatusError.
func ParseDiscoStatus(b byte) (DiscoStatus, error) {
	s := DiscoStatus(b)
	if _, ok := discoStatusNames[s]; !ok {
		return s, &UnknownStatusError{Kind: "DiscoStatus", Code: b}
	}
	return s, nil
}

// String implements fmt.Stringer.
func (s DiscoStatus) String() string {
	return statusName("DiscoStatus", discoStatusNames[s], byte(s))
}

func statusName(kind, name string, code byte) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("%s(0x%02X)", kind, code)
}
