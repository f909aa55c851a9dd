/*
Package wsframe implements the framing layer of the WebSocket protocol as
specified in RFC 6455.

The main purpose of this package is to translate a byte stream into
application messages and application messages into framed bytes, without
doing any I/O on its own.

Overview.

Decoding is done by Parser. It could be fed by chunks of any size, even
byte by byte:

  p := wsframe.NewParser(wsframe.StateServerSide)

  events, err := p.Feed(chunk)
  if err != nil {
	  // Protocol violation. Parser is dead from now on.
  }
  for _, e := range events {
	  switch e.OpCode {
	  case wsframe.OpText, wsframe.OpBinary:
		  // Complete (possibly reassembled) message.
	  case wsframe.OpClose:
		  log.Println(e.CloseStatus(), e.Reason)
	  }
  }

Encoding is done by Message:

  m := wsframe.NewTextMessage("hello, world!")
  m.Mask() // Only for client side.

  if _, err := m.WriteTo(conn); err != nil {
	  // handle err
  }

Fragmented messages are built from continuation pieces and a final piece
with real type:

  wsframe.NewContinuationMessage(p1).WriteTo(conn)
  wsframe.NewTextMessage(p2).WriteTo(conn)

The HTTP upgrade is not a streaming step, so it is handled separately by
Upgrade, ReadRequest and AcceptKey.

For stream oriented helpers see the wsutil package.
*/
package wsframe
