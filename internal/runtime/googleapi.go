// internal/runtime/googleapi.go — adapts *gmail.Service to our small interface
package runtime

import (
	"context"
	"fmt"

	"google.golang.org/api/gmail/v1"

	gc "github.com/joshsymonds/chronoreply/internal/gmail"
)

const userID = "me"

type googleClient struct{ svc *gmail.Service }

// NewGoogleAPIClient wraps svc in the gc.Client interface.
func NewGoogleAPIClient(svc *gmail.Service) gc.Client { return &googleClient{svc} }

// ListUnread returns the first page of matches only; the poll loop picks up
// the rest on later iterations.
func (g *googleClient) ListUnread(ctx context.Context, q gc.Query) ([]gc.MessageID, error) {
	res, err := g.svc.Users.Messages.List(userID).Q(q.Raw).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list messages %q: %w", q.Raw, err)
	}
	ids := make([]gc.MessageID, 0, len(res.Messages))
	for _, m := range res.Messages {
		ids = append(ids, gc.MessageID(m.Id))
	}
	return ids, nil
}

func (g *googleClient) GetMessage(ctx context.Context, id gc.MessageID) (gc.Message, error) {
	msg, err := g.svc.Users.Messages.Get(userID, string(id)).Format("metadata").Context(ctx).Do()
	if err != nil {
		return gc.Message{}, fmt.Errorf("get message %s: %w", id, err)
	}
	out := gc.Message{ID: id, ThreadID: gc.ThreadID(msg.ThreadId)}
	if msg.Payload != nil {
		out.Headers = make(gc.Headers, 0, len(msg.Payload.Headers))
		for _, hd := range msg.Payload.Headers {
			out.Headers = append(out.Headers, gc.Header{Name: hd.Name, Value: hd.Value})
		}
	}
	out.Subject, _ = out.Headers.Get("Subject")
	return out, nil
}

func (g *googleClient) ListLabels(ctx context.Context) ([]gc.Label, error) {
	lr, err := g.svc.Users.Labels.List(userID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}
	labels := make([]gc.Label, 0, len(lr.Labels))
	for _, l := range lr.Labels {
		labels = append(labels, fromAPILabel(l))
	}
	return labels, nil
}

func (g *googleClient) CreateLabel(ctx context.Context, name string, vis gc.Visibility) (gc.Label, error) {
	req := &gmail.Label{
		Name:                  name,
		LabelListVisibility:   vis.LabelList,
		MessageListVisibility: vis.MessageList,
	}
	created, err := g.svc.Users.Labels.Create(userID, req).Context(ctx).Do()
	if err != nil {
		return gc.Label{}, fmt.Errorf("create label %q: %w", name, err)
	}
	return fromAPILabel(created), nil
}

func (g *googleClient) ModifyThreadLabels(ctx context.Context, thread gc.ThreadID, add, remove []gc.LabelID) error {
	req := &gmail.ModifyThreadRequest{
		AddLabelIds:    toStrings(add),
		RemoveLabelIds: toStrings(remove),
	}
	if _, err := g.svc.Users.Threads.Modify(userID, string(thread), req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("modify thread %s: %w", thread, err)
	}
	return nil
}

func fromAPILabel(l *gmail.Label) gc.Label {
	return gc.Label{
		ID:   gc.LabelID(l.Id),
		Name: l.Name,
		Visibility: gc.Visibility{
			LabelList:   l.LabelListVisibility,
			MessageList: l.MessageListVisibility,
		},
	}
}

func toStrings(ids []gc.LabelID) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
