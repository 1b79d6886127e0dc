package recall

import (
	"context"
	"testing"

	"github.com/rushteam/tripkit/core"
)

func TestCollabIndexForUser(t *testing.T) {
	idx := NewCollabIndex(fixtureCatalog(t))

	scored := idx.ForUser("u1", 10)
	if len(scored) == 0 {
		t.Fatal("u1 has history, want non-empty result")
	}
	for i := 1; i < len(scored); i++ {
		if scored[i-1].Score < scored[i].Score {
			t.Error("scores must be sorted non-increasing")
		}
	}

	// u1 与 u2 同好 A；u2 还喜欢 B，所以 B 对 u1 的分应高于孤立的 C
	byID := make(map[string]float64)
	for _, s := range scored {
		byID[s.ID] = s.Score
	}
	if byID["B"] <= byID["C"] {
		t.Errorf("co-interaction should rank B above C: B=%v C=%v", byID["B"], byID["C"])
	}
}

func TestCollabIndexColdStart(t *testing.T) {
	idx := NewCollabIndex(fixtureCatalog(t))

	// 无交互历史的用户返回空列表，不是错误
	if got := idx.ForUser("stranger", 10); len(got) != 0 {
		t.Errorf("cold-start user should get empty list, got %v", got)
	}
}

func TestCollabIndexUsers(t *testing.T) {
	idx := NewCollabIndex(fixtureCatalog(t))
	users := idx.Users()
	if len(users) != 3 {
		t.Fatalf("want 3 users, got %v", users)
	}
	// 构造顺序：首次出现的次序
	if users[0] != "u1" || users[1] != "u2" || users[2] != "u3" {
		t.Errorf("users should keep first-seen order: %v", users)
	}
}

func TestCollabRecall(t *testing.T) {
	c := fixtureCatalog(t)
	r := &CollabRecall{Index: NewCollabIndex(c), Catalog: c, TopK: 10}

	items, err := r.Recall(context.Background(), &core.RecommendContext{UserID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) == 0 {
		t.Fatal("want non-empty recall for u1")
	}
	for _, it := range items {
		if _, ok := it.Features["collab_score"]; !ok {
			t.Error("recall items must carry collab_score feature")
		}
		if lbl, ok := it.Labels["recall_source"]; !ok || lbl.Value != "i2i" {
			t.Error("recall items must carry recall_source=i2i label")
		}
	}

	// 没有 UserID 时召回为空
	items, err = r.Recall(context.Background(), &core.RecommendContext{})
	if err != nil || len(items) != 0 {
		t.Errorf("no user id: want empty, got %v items, err %v", len(items), err)
	}
}
