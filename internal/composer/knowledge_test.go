package composer

import "testing"

func TestSelectKnowledgeReferenceInsertsResolvedItem(t *testing.T) {
	store := NewSelectionStore()

	if !store.SelectKnowledgeReference(KnowledgeEntry{ID: "kb-1", Name: "Handbook"}) {
		t.Fatal("expected first selection to insert")
	}

	items := store.Items()
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	it := items[0]
	if it.Kind != KindKnowledgeReference || it.ServerID != "kb-1" || it.DisplayName != "Handbook" {
		t.Fatalf("unexpected item: %+v", it)
	}
	if it.Status != "" {
		t.Fatalf("knowledge references carry no upload status, got %q", it.Status)
	}
	if !it.Attachable() {
		t.Fatal("knowledge references are always attachable")
	}
	if it.ItemID == "" {
		t.Fatal("expected a generated item id")
	}
}

func TestSelectKnowledgeReferenceSilentlyDedups(t *testing.T) {
	store := NewSelectionStore()

	store.SelectKnowledgeReference(KnowledgeEntry{ID: "kb-1", Name: "Handbook"})
	if store.SelectKnowledgeReference(KnowledgeEntry{ID: "kb-1", Name: "Handbook"}) {
		t.Fatal("expected duplicate selection to be a no-op")
	}

	if store.Len() != 1 {
		t.Fatalf("expected exactly one item with kb-1, got %d items", store.Len())
	}
}

func TestSelectKnowledgeReferenceDistinctEntriesCoexist(t *testing.T) {
	store := NewSelectionStore()
	store.SelectKnowledgeReference(KnowledgeEntry{ID: "kb-1", Name: "A"})
	store.SelectKnowledgeReference(KnowledgeEntry{ID: "kb-2", Name: "B"})

	items := store.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ServerID != "kb-1" || items[1].ServerID != "kb-2" {
		t.Fatalf("selection order not preserved: %+v", items)
	}
}
