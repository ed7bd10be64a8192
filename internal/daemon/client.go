package daemon

import (
	"net"
	"time"
)

// Send dials the daemon's control socket, writes one encoded command,
// half-closes the write side, and decodes the reply (ReplyNone when the
// command has none). It is the whole of the client side of the IPC
// protocol; wavesctl and tests both go through it.
func Send(socketPath string, cmd PlayerCmd) (Reply, error) {
	conn, err := net.DialTimeout("unix", socketPath, 5*time.Second)
	if err != nil {
		return Reply{}, err
	}
	defer conn.Close()

	if _, err := conn.Write(EncodeCmd(cmd)); err != nil {
		return Reply{}, err
	}
	if uc, ok := conn.(*net.UnixConn); ok {
		if err := uc.CloseWrite(); err != nil {
			return Reply{}, err
		}
	}

	data, err := ReadMessage(conn)
	if err != nil {
		return Reply{}, err
	}
	if len(data) == 0 {
		return Reply{}, nil
	}
	return DecodeReply(data)
}
