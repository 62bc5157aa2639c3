// Package invite extracts Teams meeting identifiers from invitation
// emails.
//
// Teams invites embed everything rollcall needs in the HTML body: the
// human-facing meeting ID and passcode, and a join link whose path holds
// the thread ID ("19:meeting_...@thread.v2") and whose context parameter
// holds the tenant and organizer IDs. The thread ID is the key used for
// Microsoft Graph online meeting lookups.
package invite

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/rollcall-labs/rollcall/internal/core/domain"
)

// joinLinkID is the anchor ID Teams assigns to the join link in invite
// emails.
const joinLinkID = "meet_invite_block.action.join_link"

var threadIDPattern = regexp.MustCompile(`19:meeting_[A-Za-z0-9_\-]+(?:@thread\.v2)?`)

// ParseHTML extracts meeting information from an invite email body.
// Fields that cannot be found are left empty; callers decide whether a
// missing thread ID is fatal.
func ParseHTML(body string) (domain.MeetingInfo, error) {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return domain.MeetingInfo{}, fmt.Errorf("parse invite html: %w", err)
	}

	info := domain.MeetingInfo{
		MeetingID: strings.ReplaceAll(labelledValue(doc, "Meeting ID:"), " ", ""),
		Passcode:  labelledValue(doc, "Passcode:"),
		JoinLink:  joinLink(doc),
	}

	if info.JoinLink != "" {
		info.ThreadID = MeetingIDFromJoinURL(info.JoinLink)
		info.TenantID, info.OrganizerID = contextIDs(info.JoinLink)
	}

	return info, nil
}

// MeetingIDFromJoinURL extracts the online meeting thread ID from a
// Teams join URL.
func MeetingIDFromJoinURL(joinURL string) string {
	decoded, err := url.QueryUnescape(joinURL)
	if err != nil {
		decoded = joinURL
	}
	return threadIDPattern.FindString(decoded)
}

// contextIDs decodes the tenant and organizer IDs from the join link's
// context parameter, a URL-encoded JSON object {"Tid": ..., "Oid": ...}.
func contextIDs(joinURL string) (tenantID, organizerID string) {
	u, err := url.Parse(joinURL)
	if err != nil {
		return "", ""
	}

	raw := u.Query().Get("context")
	if raw == "" {
		return "", ""
	}

	var ctx struct {
		Tid string `json:"Tid"`
		Oid string `json:"Oid"`
	}
	if err := json.Unmarshal([]byte(raw), &ctx); err != nil {
		return "", ""
	}
	return ctx.Tid, ctx.Oid
}

// joinLink finds the href of the invite's join anchor. Falls back to the
// first teams.microsoft.com meetup-join link when the anchor ID is
// absent (forwarded invites often lose element IDs).
func joinLink(doc *html.Node) string {
	var byID, byHref string

	walk(doc, func(n *html.Node) {
		if n.Type != html.ElementNode || n.Data != "a" {
			return
		}
		href := attr(n, "href")
		if href == "" {
			return
		}
		if attr(n, "id") == joinLinkID && byID == "" {
			byID = href
		}
		if byHref == "" && strings.Contains(href, "teams.microsoft.com/l/meetup-join/") {
			byHref = href
		}
	})

	if byID != "" {
		return byID
	}
	return byHref
}

// labelledValue finds a span containing the label and returns the text of
// the following span, the layout Teams uses for "Meeting ID:" and
// "Passcode:" rows.
func labelledValue(doc *html.Node, label string) string {
	var value string

	walk(doc, func(n *html.Node) {
		if value != "" || n.Type != html.ElementNode || n.Data != "span" {
			return
		}
		if !strings.Contains(text(n), label) {
			return
		}
		for sib := n.NextSibling; sib != nil; sib = sib.NextSibling {
			if sib.Type == html.ElementNode && sib.Data == "span" {
				value = strings.TrimSpace(text(sib))
				return
			}
		}
	})

	return value
}

// walk visits every node depth-first.
func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		walk(child, fn)
	}
}

// text returns the concatenated text content of a node.
func text(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	})
	return sb.String()
}

// attr returns the value of a named attribute, or empty.
func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}
