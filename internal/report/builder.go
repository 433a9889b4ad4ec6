package report

import (
	"context"
	"errors"
	"time"

	"github.com/you/groupme-archive/internal/core"
	"github.com/you/groupme-archive/internal/timeutil"
)

// ErrNoMessages reports that the input stream held no messages at all,
// so no archive was produced.
var ErrNoMessages = errors.New("no messages to export")

// AvatarResolver supplies a chat's avatar URL by name.
type AvatarResolver interface {
	Resolve(ctx context.Context, chatName string, isGroup bool) (string, error)
}

// Builder consumes messages in chronological order and drives the
// assembler through boundary transitions. Boundaries cascade: a new
// year implies a new month, which implies a new segment, which implies
// a new day, which implies a new chat block.
type Builder struct {
	asm     *Assembler
	avatars AvatarResolver
	heading string

	started bool
	year    int
	month   int
	segment int
	day     int

	cover *Cover
	pages []*PageNode
	page  *PageNode
	block *ChatBlock
}

func NewBuilder(asm *Assembler, avatars AvatarResolver, heading string) *Builder {
	return &Builder{asm: asm, avatars: avatars, heading: heading}
}

// Add folds one message into the archive. Messages must arrive with
// non-decreasing timestamps.
func (b *Builder) Add(ctx context.Context, msg core.Message) error {
	t := msg.SentAt
	year, month, day := t.Year(), int(t.Month()), t.Day()
	segment := timeutil.SegmentOf(day)

	if !b.started {
		if err := b.seed(ctx, msg); err != nil {
			return err
		}
	} else {
		switch {
		case year != b.year:
			if err := b.closeYear(); err != nil {
				return err
			}
			if err := b.openYear(year); err != nil {
				return err
			}
			if err := b.openMonth(year, month); err != nil {
				return err
			}
			b.openSegment(year, month, day)
			if err := b.openDay(ctx, t, msg, false); err != nil {
				return err
			}
		case month != b.month:
			if err := b.closeMonth(); err != nil {
				return err
			}
			if err := b.openMonth(year, month); err != nil {
				return err
			}
			b.openSegment(year, month, day)
			if err := b.openDay(ctx, t, msg, false); err != nil {
				return err
			}
		case segment != b.segment:
			if err := b.closeSegment(); err != nil {
				return err
			}
			b.openSegment(year, month, day)
			if err := b.openDay(ctx, t, msg, false); err != nil {
				return err
			}
		case day != b.day:
			b.closeDay()
			if err := b.openDay(ctx, t, msg, false); err != nil {
				return err
			}
		case msg.ChatName != b.block.ChatName:
			if err := b.openChat(ctx, msg); err != nil {
				return err
			}
		}
	}

	b.year, b.month, b.segment, b.day = year, month, segment, day
	b.block.AppendMessage(msg)
	messagesRendered.Add(1)
	return nil
}

// Finish closes whatever is still open and writes the cover. If no
// message was ever added it reports ErrNoMessages and writes nothing.
func (b *Builder) Finish() error {
	if !b.started {
		return ErrNoMessages
	}
	if err := b.closeYear(); err != nil {
		return err
	}
	return b.asm.WriteCover(b.cover)
}

func (b *Builder) seed(ctx context.Context, msg core.Message) error {
	t := msg.SentAt
	year, month, day := t.Year(), int(t.Month()), t.Day()

	if err := b.asm.WriteRootStyle(); err != nil {
		return err
	}
	b.cover = b.asm.NewCover(b.heading)
	if err := b.openYear(year); err != nil {
		return err
	}
	if err := b.openMonth(year, month); err != nil {
		return err
	}
	b.openSegment(year, month, day)
	if err := b.openDay(ctx, t, msg, true); err != nil {
		return err
	}
	b.started = true
	return nil
}

func (b *Builder) openYear(year int) error {
	if err := b.asm.CreateYearDir(year); err != nil {
		return err
	}
	b.cover.OpenYear(year)
	return nil
}

func (b *Builder) openMonth(year, month int) error {
	if err := b.asm.CreateMonthDir(year, month); err != nil {
		return err
	}
	b.cover.OpenMonth(month)
	return nil
}

func (b *Builder) openSegment(year, month, day int) {
	b.pages = nil
	b.cover.AddSegmentEntry(year, month, day)
}

func (b *Builder) openDay(ctx context.Context, t time.Time, msg core.Message, runStart bool) error {
	b.page = b.asm.NewDayPage(t, runStart)
	b.pages = append(b.pages, b.page)
	return b.openChat(ctx, msg)
}

func (b *Builder) openChat(ctx context.Context, msg core.Message) error {
	if b.block != nil {
		b.page.AttachChatBlock(b.block)
	}
	url, err := b.avatars.Resolve(ctx, msg.ChatName, msg.IsGroup)
	if err != nil {
		return err
	}
	b.block = b.asm.NewChatBlock(msg.ChatName, msg.IsGroup, url)
	return nil
}

func (b *Builder) closeDay() {
	b.page.AttachChatBlock(b.block)
	b.block = nil
}

func (b *Builder) closeSegment() error {
	b.closeDay()
	return b.asm.FlushSegment(b.year, b.month, b.pages)
}

func (b *Builder) closeMonth() error {
	if err := b.closeSegment(); err != nil {
		return err
	}
	b.cover.CloseSegmentList()
	return nil
}

func (b *Builder) closeYear() error {
	if err := b.closeMonth(); err != nil {
		return err
	}
	b.cover.CloseMonthList()
	return nil
}
