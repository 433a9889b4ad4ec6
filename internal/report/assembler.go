package report

import (
	"fmt"
	"time"

	"github.com/you/groupme-archive/internal/core"
	"github.com/you/groupme-archive/internal/htmldoc"
	"github.com/you/groupme-archive/internal/timeutil"
)

// Assembler turns the builder's structural decisions into documents and
// file writes. Navigation is two-phase: day pages accumulate while a
// segment is open and only receive their sibling tab links when the
// whole segment is flushed at once.
type Assembler struct {
	fsys     Filesystem
	confirm  Confirmer
	username string
}

func NewAssembler(fsys Filesystem, confirm Confirmer, username string) *Assembler {
	return &Assembler{fsys: fsys, confirm: confirm, username: username}
}

// PageNode is one day's page before navigation is stamped in and the
// file is written. Pages exist only for days that contain messages.
type PageNode struct {
	Day int

	doc       *htmldoc.Document
	header    *htmldoc.Node
	container *htmldoc.Node
}

// ChatBlock is the rendered run of consecutive messages belonging to
// one chat within one day page.
type ChatBlock struct {
	ChatName string
	IsGroup  bool

	root     *htmldoc.Node
	messages *htmldoc.Node
}

func monthDirName(month int) string {
	return fmt.Sprintf("%02d-%s", month, timeutil.MonthNames[month-1])
}

func dayFileName(month, day int) string {
	return fmt.Sprintf("%d-%02d.html", month, day)
}

func dayPagePath(year, month, day int) string {
	return fmt.Sprintf("%d/%s/%s", year, monthDirName(month), dayFileName(month, day))
}

func dayLabel(month, day int) string {
	return fmt.Sprintf("%s %d%s", timeutil.MonthNames[month-1], day, timeutil.DaySuffix(day))
}

// WriteRootStyle emits the cover stylesheet at the archive root.
func (a *Assembler) WriteRootStyle() error {
	return a.fsys.WriteFile("style.css", coverStyle)
}

// CreateYearDir makes a year directory, applying the collision policy.
func (a *Assembler) CreateYearDir(year int) error {
	return createDir(a.fsys, a.confirm, fmt.Sprintf("%d", year))
}

// CreateMonthDir makes a month directory and drops its stylesheet.
func (a *Assembler) CreateMonthDir(year, month int) error {
	dir := fmt.Sprintf("%d/%s", year, monthDirName(month))
	if err := a.fsys.MkDir(dir); err != nil {
		return err
	}
	return a.fsys.WriteFile(dir+"/style.css", pageStyle)
}

// NewDayPage opens the page for one day. The page title spans the
// day's month segment; the very first page of a run instead starts at
// the first message's actual date, since earlier days were never
// exported.
func (a *Assembler) NewDayPage(date time.Time, runStart bool) *PageNode {
	month, day, year := int(date.Month()), date.Day(), date.Year()

	start := timeutil.SegmentStart(month, day, year)
	if runStart {
		start = time.Date(year, date.Month(), day, 0, 0, 0, 0, time.UTC)
	}
	end := timeutil.SegmentEnd(month, day, year)
	span := timeutil.ShortDate(start) + " and " + timeutil.ShortDate(end)

	doc := htmldoc.NewDocument(
		fmt.Sprintf("Messages %s-%s", timeutil.ShortDate(start), timeutil.ShortDate(end)),
		"style.css",
	)
	header := htmldoc.NewNode("div").AddClass("header")
	header.AppendChild(htmldoc.NewNode("h1").
		SetText(fmt.Sprintf("%s's GroupMe messages between %s", a.username, span)))
	doc.AppendChild(header)
	container := htmldoc.NewNode("div").AddClass("container")
	doc.AppendChild(container)

	return &PageNode{Day: day, doc: doc, header: header, container: container}
}

// NewChatBlock opens a block for a chat on the current page, with the
// chat's avatar (or a placeholder) in its header.
func (a *Assembler) NewChatBlock(chatName string, isGroup bool, avatarURL string) *ChatBlock {
	root := htmldoc.NewNode("div").AddClass("chat")

	header := htmldoc.NewNode("div").AddClass("chat-header")
	var img *htmldoc.Node
	if avatarURL != "" {
		img = htmldoc.NewNode("img").SetAttr("src", avatarURL)
	} else {
		img = htmldoc.NewNode("div").AddClass("no-pic").SetText("No picture")
	}
	if !isGroup {
		img.AddClass("dm-img")
	}
	header.AppendChild(img)
	header.AppendChild(htmldoc.NewNode("h2").SetText(chatName))
	root.AppendChild(header)

	return &ChatBlock{
		ChatName: chatName,
		IsGroup:  isGroup,
		root:     root,
		messages: htmldoc.NewNode("div").AddClass("messages"),
	}
}

// AppendMessage renders one message entry into the block.
func (b *ChatBlock) AppendMessage(msg core.Message) {
	entry := htmldoc.NewNode("div").AddClass("message")

	metadata := htmldoc.NewNode("div").AddClass("message-metadata")
	author := htmldoc.NewNode("div").AddClass("author-info")
	if msg.AuthorAvatar != "" {
		author.AppendChild(htmldoc.NewNode("img").SetAttr("src", msg.AuthorAvatar))
	} else {
		author.AppendChild(htmldoc.NewNode("div").AddClass("no-pic").SetText("No profile picture"))
	}
	author.AppendChild(htmldoc.NewNode("h3").SetText(msg.Author))
	metadata.AppendChild(author)
	metadata.AppendChild(htmldoc.NewNode("div").AddClass("timestamp").
		SetText(timeutil.TwelveHour(msg.SentAt)))
	entry.AppendChild(metadata)

	if msg.Text != "" {
		entry.AppendChild(htmldoc.NewNode("p").SetHTML(Sanitize(msg.Text)))
	}

	b.messages.AppendChild(entry)
}

// close attaches the block's message container and hands back the root
// for the page.
func (b *ChatBlock) close() *htmldoc.Node {
	b.root.AppendChild(b.messages)
	return b.root
}

// AttachChatBlock closes the block onto the page.
func (p *PageNode) AttachChatBlock(b *ChatBlock) {
	p.container.AppendChild(b.close())
}

// FlushSegment stamps cross-navigation tabs into every page of a closed
// segment and writes them all. Tabs can only exist now: earlier pages
// need links to later ones that were unknown while the segment was
// open.
func (a *Assembler) FlushSegment(year, month int, pages []*PageNode) error {
	for _, page := range pages {
		for _, sibling := range pages {
			tab := htmldoc.NewNode("div").AddClass("nav").
				SetText(dayLabel(month, sibling.Day))
			if sibling.Day == page.Day {
				tab.SetID("selected")
			}
			link := htmldoc.NewNode("a").SetAttr("href", dayFileName(month, sibling.Day))
			link.AppendChild(tab)
			page.header.AppendChild(link)
		}
		if err := a.fsys.WriteFile(dayPagePath(year, month, page.Day), page.doc.Render()); err != nil {
			return err
		}
		pagesWritten.Add(1)
	}
	return nil
}

// Cover accumulates the top-level index: years, their months, and each
// month's segment start dates linking to first day pages.
type Cover struct {
	doc         *htmldoc.Document
	container   *htmldoc.Node
	yearList    *htmldoc.Node
	monthList   *htmldoc.Node
	segmentList *htmldoc.Node
}

func (a *Assembler) NewCover(heading string) *Cover {
	doc := htmldoc.NewDocument("GroupMe Query Results", "style.css")
	header := htmldoc.NewNode("div").AddClass("header")
	header.AppendChild(htmldoc.NewNode("h1").SetText(heading))
	doc.AppendChild(header)

	return &Cover{
		doc:       doc,
		container: htmldoc.NewNode("div").AddClass("container"),
		yearList:  htmldoc.NewNode("ul").AddClass("year-list"),
	}
}

// OpenYear starts a year entry and a fresh month list.
func (c *Cover) OpenYear(year int) {
	c.yearList.AppendChild(htmldoc.NewNode("li").SetText(fmt.Sprintf("%d", year)))
	c.monthList = htmldoc.NewNode("ul").AddClass("month-list")
}

// OpenMonth starts a month entry and a fresh segment list.
func (c *Cover) OpenMonth(month int) {
	c.monthList.AppendChild(htmldoc.NewNode("li").SetText(timeutil.MonthNames[month-1]))
	c.segmentList = htmldoc.NewNode("ul").AddClass("start-date-list")
}

// AddSegmentEntry links a segment's first day page from the cover.
func (c *Cover) AddSegmentEntry(year, month, day int) {
	item := htmldoc.NewNode("li").SetText(dayLabel(month, day))
	link := htmldoc.NewNode("a").SetAttr("href", dayPagePath(year, month, day))
	link.AppendChild(item)
	c.segmentList.AppendChild(link)
}

// CloseSegmentList attaches the month's accumulated segment entries.
func (c *Cover) CloseSegmentList() {
	c.monthList.AppendChild(c.segmentList)
}

// CloseMonthList attaches the year's accumulated month entries.
func (c *Cover) CloseMonthList() {
	c.yearList.AppendChild(c.monthList)
}

// WriteCover finalizes and writes the cover page.
func (a *Assembler) WriteCover(c *Cover) error {
	c.container.AppendChild(c.yearList)
	c.doc.AppendChild(c.container)
	return a.fsys.WriteFile("cover.html", c.doc.Render())
}
