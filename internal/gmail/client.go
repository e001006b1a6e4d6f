package gmail

import "context"

// Client is the narrow Gmail surface required by chronoreply.
type Client interface {
	ListUnread(ctx context.Context, q Query) ([]MessageID, error)
	GetMessage(ctx context.Context, id MessageID) (Message, error)
	ListLabels(ctx context.Context) ([]Label, error)
	CreateLabel(ctx context.Context, name string, vis Visibility) (Label, error)
	ModifyThreadLabels(ctx context.Context, thread ThreadID, add, remove []LabelID) error
}
