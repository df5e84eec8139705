// Package poll implements EPP service message polling.
package poll

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rsclarke/goepp/internal/command"
	"github.com/rsclarke/goepp/internal/epp"
	"github.com/rsclarke/goepp/internal/xmldoc"
)

// Client reads and acknowledges the registrar's message queue.
type Client struct {
	exec     epp.Executor
	renderer *command.Renderer
}

// New returns a poll client.
func New(exec epp.Executor, renderer *command.Renderer) *Client {
	return &Client{exec: exec, renderer: renderer}
}

// Request fetches the oldest queued message. Code 1300 means the queue is
// empty and carries no payload; 1301 carries a *epp.MessageQueue.
func (c *Client) Request(ctx context.Context, opts ...command.Option) (*epp.Result, error) {
	res, err := epp.Send(ctx, c.exec, c.renderer, command.PollRequest, nil, opts...)
	if err != nil || res.Code != epp.CodeAckToDequeue {
		return res, err
	}
	doc, err := res.Document()
	if err != nil {
		return nil, err
	}
	q := doc.Child("msgQ")
	if q == nil {
		return nil, epp.MissingElement("msgQ")
	}
	mq, err := decodeQueue(q)
	if err != nil {
		return nil, err
	}
	if mq.QueueDate, err = epp.TimeOf(q, "qDate"); err != nil {
		return nil, err
	}
	for _, m := range q.ChildrenNamed("msg") {
		mq.Messages = append(mq.Messages, epp.Message{Lang: m.AttrOr("lang"), Text: m.Text})
	}
	res.Payload = mq
	return res, nil
}

// Acknowledge removes message id from the queue. The payload reports the
// messages left; a response without msgQ means the queue is now empty.
func (c *Client) Acknowledge(ctx context.Context, id string, opts ...command.Option) (*epp.Result, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: message ID is required", epp.ErrInvalidParameter)
	}
	res, err := epp.Send(ctx, c.exec, c.renderer, command.PollAck, command.Params{"MessageID": id}, opts...)
	if err != nil || res.Code != epp.CodeSuccess {
		return res, err
	}
	doc, err := res.Document()
	if err != nil {
		return nil, err
	}
	q := doc.Child("msgQ")
	if q == nil {
		res.Payload = &epp.MessageQueue{}
		return res, nil
	}
	mq, err := decodeQueue(q)
	if err != nil {
		return nil, err
	}
	res.Payload = mq
	return res, nil
}

func decodeQueue(q *xmldoc.Node) (*epp.MessageQueue, error) {
	mq := &epp.MessageQueue{ID: q.AttrOr("id")}
	if s := q.AttrOr("count"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, epp.InvalidValue("msgQ", err)
		}
		mq.Count = n
	}
	return mq, nil
}
