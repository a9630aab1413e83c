package catalog

import (
	"fmt"
	"io"
	"strings"

	"github.com/cardastika/battlepass/internal/coerce"
	"golang.org/x/net/html"
)

// ParseHTML reconstructs a catalog from battle pass page markup:
//
//	<div class="bp-level" data-tier="10">
//	  <div class="bp-reward" data-track="free" data-reward-type="silver" data-amount="50"></div>
//	  <div class="bp-reward" data-track="vip" data-reward-type="item" data-item-id="stone_shield">
//	    <span class="bp-reward-name">Stone Shield</span>
//	  </div>
//	</div>
//	<button class="bp-exchange-item" data-exchange="50"></button>
//
// Levels without a numeric data-tier, or with tier 0, are skipped. A reward
// element without data-reward-type is an empty slot.
func ParseHTML(r io.Reader) (*Catalog, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing catalog markup: %w", err)
	}

	c := &Catalog{}
	walk(doc, func(n *html.Node) bool {
		switch {
		case hasClass(n, "bp-level"):
			raw, ok := attr(n, "data-tier")
			if !ok {
				return true
			}
			tier := coerce.StringInt(raw, 0)
			if tier == 0 {
				return false
			}
			c.Tiers = append(c.Tiers, Tier{
				Tier: tier,
				Free: rewardFromMarkup(n, TrackFree),
				VIP:  rewardFromMarkup(n, TrackVIP),
			})
			return false
		case hasClass(n, "bp-exchange-item"):
			if raw, ok := attr(n, "data-exchange"); ok {
				c.Exchange = append(c.Exchange, coerce.StringInt(raw, 0))
			}
		}
		return true
	})

	if err := c.normalize(); err != nil {
		return nil, err
	}
	return c, nil
}

// rewardFromMarkup reads the first .bp-reward[data-track=track] under level.
func rewardFromMarkup(level *html.Node, track Track) *Reward {
	el := find(level, func(n *html.Node) bool {
		if !hasClass(n, "bp-reward") {
			return false
		}
		v, _ := attr(n, "data-track")
		return v == string(track)
	})
	if el == nil {
		return nil
	}

	typ, _ := attr(el, "data-reward-type")
	if strings.TrimSpace(typ) == "" {
		return nil
	}
	amount, _ := attr(el, "data-amount")
	itemID, _ := attr(el, "data-item-id")
	itemName, _ := attr(el, "data-item-name")
	if strings.TrimSpace(itemName) == "" {
		if nameEl := find(el, func(n *html.Node) bool { return hasClass(n, "bp-reward-name") }); nameEl != nil {
			itemName = textContent(nameEl)
		}
	}

	return &Reward{
		Type:     RewardType(typ),
		Amount:   coerce.StringInt(amount, 1),
		ItemID:   itemID,
		ItemName: itemName,
	}
}

// walk visits n and its descendants depth-first; returning false from fn
// skips the node's children.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if n.Type == html.ElementNode && !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

// find returns the first descendant of n matching pred.
func find(n *html.Node, pred func(*html.Node) bool) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && pred(c) {
			return c
		}
		if found := find(c, pred); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasClass(n *html.Node, class string) bool {
	v, ok := attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.TrimSpace(sb.String())
}
