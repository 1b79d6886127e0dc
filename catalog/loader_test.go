package catalog

import (
	"strings"
	"testing"

	"github.com/rushteam/tripkit/core"
)

const itemsCSV = `item_id,title,price,duration_hr,tags,family_friendly,nightlife
A,Reef Snorkel Tour,50,2,"reef,snorkel",1,0
B,City Museum,30,1,museum,true,0
C,Night Bar Crawl,100,3,"nightlife,bar",0,1
D,Broken Price,oops,-3,reef dive,yes,no
`

const interactionsCSV = `user_id,item_id,weight
u1,A,2
u1,B,1
u2,A,
u2,C,1.5
u3,Z,1
`

func loadFixture(t *testing.T) *Catalog {
	t.Helper()
	c, err := LoadCSV(strings.NewReader(itemsCSV), strings.NewReader(interactionsCSV))
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	return c
}

func TestLoadCSV(t *testing.T) {
	c := loadFixture(t)

	if c.Len() != 4 {
		t.Fatalf("want 4 items, got %d", c.Len())
	}

	a, ok := c.ItemByID("A")
	if !ok {
		t.Fatal("item A not found")
	}
	if a.Title != "Reef Snorkel Tour" || a.Price != 50 || a.DurationHr != 2 {
		t.Errorf("item A parsed wrong: %+v", a)
	}
	if len(a.Tags) != 2 || a.Tags[0] != "reef" || a.Tags[1] != "snorkel" {
		t.Errorf("item A tags: %v", a.Tags)
	}
	if !a.FamilyFriendly || a.Nightlife {
		t.Errorf("item A flags: %+v", a)
	}

	b, _ := c.ItemByID("B")
	if !b.FamilyFriendly {
		t.Error("true should parse as family friendly")
	}

	// 数值格式错误/负数一律归 0，不让整个加载失败
	d, _ := c.ItemByID("D")
	if d.Price != 0 || d.DurationHr != 0 {
		t.Errorf("malformed numerics should coerce to 0: %+v", d)
	}
	if !d.FamilyFriendly || d.Nightlife {
		t.Errorf("yes/no flags parsed wrong: %+v", d)
	}

	// weight 缺省 1.0；指向未知活动的交互保留在表里（热度统计时被跳过）
	if len(c.Interactions) != 5 {
		t.Fatalf("want 5 interactions, got %d", len(c.Interactions))
	}
	if c.Interactions[2].Weight != 1.0 {
		t.Errorf("empty weight should default to 1.0, got %v", c.Interactions[2].Weight)
	}
}

func TestLoadCSVMalformed(t *testing.T) {
	bad := "item_id,title\n\"unterminated"
	_, err := LoadCSV(strings.NewReader(bad), strings.NewReader(""))
	if err == nil {
		t.Fatal("want error for malformed csv")
	}
	if !core.IsInvalidInput(err) {
		t.Errorf("want INVALID_INPUT, got %v", err)
	}
}

func TestPopularity(t *testing.T) {
	c := loadFixture(t)
	pop := c.Popularity()

	// A: 2 + 1(空 weight 缺省) = 3
	if pop["A"] != 3 {
		t.Errorf("popularity A = %v, want 3", pop["A"])
	}
	if pop["C"] != 1.5 {
		t.Errorf("popularity C = %v, want 1.5", pop["C"])
	}
	// 未知活动 Z 的交互不计入
	if _, ok := pop["Z"]; ok {
		t.Error("unknown item should not appear in popularity")
	}
}

func TestPolicyEligible(t *testing.T) {
	c := loadFixture(t)

	all := c.PolicyEligible(false, false)
	if len(all) != 4 {
		t.Errorf("no policy: want all 4, got %v", all)
	}

	noNight := c.PolicyEligible(false, true)
	for _, id := range noNight {
		if id == "C" {
			t.Error("avoid_nightlife should exclude C")
		}
	}

	family := c.PolicyEligible(true, false)
	for _, id := range family {
		if id == "C" {
			t.Error("family policy should exclude C")
		}
	}
}

func TestParseTags(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"reef,snorkel", []string{"reef", "snorkel"}},
		{"Reef Snorkel", []string{"reef", "snorkel"}},
		{"  reef ,  SNORKEL ", []string{"reef", "snorkel"}},
		{"", nil},
	}
	for _, tt := range tests {
		got := ParseTags(tt.raw)
		if len(got) != len(tt.want) {
			t.Errorf("ParseTags(%q) = %v, want %v", tt.raw, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("ParseTags(%q) = %v, want %v", tt.raw, got, tt.want)
				break
			}
		}
	}
}

func TestNewDedupsItems(t *testing.T) {
	c := New([]Item{{ID: "A", Title: "first"}, {ID: "A", Title: "second"}}, nil)
	if c.Len() != 1 {
		t.Fatalf("want 1 item after dedup, got %d", c.Len())
	}
	it, _ := c.ItemByID("A")
	if it.Title != "first" {
		t.Error("dedup should keep the first occurrence")
	}
}
