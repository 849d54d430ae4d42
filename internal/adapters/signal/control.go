package signal

import "github.com/dkeye/RoomChat/internal/protocol"

func (ctl *SignalWSController) handlePing(c *WsSignalConn, req protocol.Request) {
	ctl.sendJSON(c, protocol.Frame{Type: protocol.TypePong, ID: req.ID})
}
