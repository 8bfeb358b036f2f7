package ws

import (
	"context"
	"errors"
	"sync"

	"adminka/internal/metrics"
	"adminka/internal/models"
)

type wsConnection interface {
	Close() error
	WriteJSON(v interface{}) error
	ReadJSON(v interface{}) error
}

type messageHub interface {
	Join(sessionID string) (string, chan models.ServerMessage)
	Leave(sessionID, connID string)
}

type Connection struct {
	ws         wsConnection
	hub        messageHub
	sessionID  string
	connID     string
	fromClient chan models.ClientMessage
	fromServer chan models.ServerMessage
	errorCh    chan error
}

func NewConnection(
	hub messageHub,
	ws wsConnection,
	sessionID string,
) *Connection {
	connID, fromServer := hub.Join(sessionID)
	return &Connection{
		ws:         ws,
		hub:        hub,
		sessionID:  sessionID,
		connID:     connID,
		fromClient: make(chan models.ClientMessage),
		fromServer: fromServer,
		errorCh:    make(chan error, 2),
	}
}

func (c *Connection) Handle(ctx context.Context) error {
	metrics.LiveConnections.Inc()
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		close(c.fromClient)
		close(c.errorCh)
		c.hub.Leave(c.sessionID, c.connID)
		metrics.LiveConnections.Dec()
	}()

	var wg sync.WaitGroup
	wg.Go(func() {
		c.errorCh <- c.pumpMessages(ctx)
		cancel()
	})

	wg.Go(func() {
		c.errorCh <- c.mainLoop(ctx)
		cancel()
	})

	var err error
	select {
	case err = <-c.errorCh:
	case <-ctx.Done():
	}
	_ = c.ws.Close()
	wg.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}

func (c *Connection) pumpMessages(ctx context.Context) error {
	for {
		var msg models.ClientMessage
		if err := c.ws.ReadJSON(&msg); err != nil {
			return err
		}
		select {
		case c.fromClient <- msg:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Connection) mainLoop(ctx context.Context) error {
	for {
		select {
		case msg := <-c.fromClient:
			if err := c.processClientMessage(msg); err != nil {
				return err
			}
		case msg, ok := <-c.fromServer:
			if !ok {
				// Session ended.
				return nil
			}
			if err := c.ws.WriteJSON(msg); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func (c *Connection) processClientMessage(msg models.ClientMessage) error {
	switch msg.Type {
	case models.ClientMessageTypePing:
		return c.ws.WriteJSON(models.ServerMessage{Type: models.ServerMessageTypePong})
	}
	return nil
}
