package signal

type pongEvent struct {
	Type string `json:"type"`
}

func (ctl *Controller) handlePing(c *WsSignalConn) {
	ctl.sendJSON(c, pongEvent{Type: "pong"})
}
