package localdb

import (
	"errors"
	"sync"
	"testing"
)

func TestAwardItem_AtMostOnce(t *testing.T) {
	setupTestDB(t)
	creator := seedUser(t, "tw-1", "alice")
	winner := seedUser(t, "tw-2", "bob")
	giveaway := seedGiveaway(t, creator.ID)

	item, err := AddItem(giveaway.ID, "Mug", "M1")
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	if err := AwardItem(item.ID, giveaway.ID, &winner.ID, "bob"); err != nil {
		t.Fatalf("AwardItem failed: %v", err)
	}

	// A second award attempt fails and commits nothing.
	err = AwardItem(item.ID, giveaway.ID, &winner.ID, "carol")
	if !errors.Is(err, ErrAlreadyAwarded) {
		t.Fatalf("unexpected error: got=%v want=%v", err, ErrAlreadyAwarded)
	}

	awarded, err := GetItem(item.ID)
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if awarded.WinnerUsername != "bob" {
		t.Fatalf("winner fields mutated by failed award: got=%q want=%q", awarded.WinnerUsername, "bob")
	}

	records, err := ListWinnerRecordsByItem(item.ID)
	if err != nil {
		t.Fatalf("ListWinnerRecordsByItem failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("unexpected ledger rows: got=%d want=1", len(records))
	}
}

func TestAwardItem_ConcurrentAttemptsRecordOneWinner(t *testing.T) {
	setupTestDB(t)
	creator := seedUser(t, "tw-1", "alice")
	giveaway := seedGiveaway(t, creator.ID)

	item, err := AddItem(giveaway.ID, "Mug", "M1")
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	const attempts = 10
	var wg sync.WaitGroup
	successes := make(chan struct{}, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := AwardItem(item.ID, giveaway.ID, nil, "bob"); err == nil {
				successes <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(successes)

	won := 0
	for range successes {
		won++
	}
	if won != 1 {
		t.Fatalf("award succeeded %d times, want exactly 1", won)
	}

	records, err := ListWinnerRecordsByItem(item.ID)
	if err != nil {
		t.Fatalf("ListWinnerRecordsByItem failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("unexpected ledger rows: got=%d want=1", len(records))
	}
}

func TestAwardItem_ChatOnlyWinnerKeepsNameSnapshot(t *testing.T) {
	setupTestDB(t)
	creator := seedUser(t, "tw-1", "alice")
	giveaway := seedGiveaway(t, creator.ID)

	item, err := AddItem(giveaway.ID, "Mug", "M1")
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	// The winner never logged into the site: no user reference, name only.
	if err := AwardItem(item.ID, giveaway.ID, nil, "drive_by_viewer"); err != nil {
		t.Fatalf("AwardItem failed: %v", err)
	}

	awarded, err := GetItem(item.ID)
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if awarded.WinnerID != nil {
		t.Fatalf("unexpected winner reference: %v", awarded.WinnerID)
	}
	if awarded.WinnerUsername != "drive_by_viewer" {
		t.Fatalf("unexpected winner snapshot: got=%q", awarded.WinnerUsername)
	}
}

func TestDeleteItem_OnlyUnawarded(t *testing.T) {
	setupTestDB(t)
	creator := seedUser(t, "tw-1", "alice")
	giveaway := seedGiveaway(t, creator.ID)

	item, err := AddItem(giveaway.ID, "Mug", "M1")
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if err := DeleteItem(item.ID); err != nil {
		t.Fatalf("DeleteItem failed: %v", err)
	}

	won, err := AddItem(giveaway.ID, "Shirt", "S1")
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if err := AwardItem(won.ID, giveaway.ID, nil, "bob"); err != nil {
		t.Fatalf("AwardItem failed: %v", err)
	}
	if err := DeleteItem(won.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("awarded item deletable: got=%v want=%v", err, ErrNotFound)
	}
}

func TestListUnawardedItems_OrderAndFilter(t *testing.T) {
	setupTestDB(t)
	creator := seedUser(t, "tw-1", "alice")
	giveaway := seedGiveaway(t, creator.ID)

	first, _ := AddItem(giveaway.ID, "Mug", "M1")
	second, _ := AddItem(giveaway.ID, "Shirt", "S1")
	third, _ := AddItem(giveaway.ID, "Sticker", "ST1")

	if err := AwardItem(second.ID, giveaway.ID, nil, "bob"); err != nil {
		t.Fatalf("AwardItem failed: %v", err)
	}

	queue, err := ListUnawardedItems(giveaway.ID)
	if err != nil {
		t.Fatalf("ListUnawardedItems failed: %v", err)
	}
	if len(queue) != 2 {
		t.Fatalf("unexpected queue length: got=%d want=2", len(queue))
	}
	if queue[0].ID != first.ID || queue[1].ID != third.ID {
		t.Fatalf("unexpected queue order: got=[%d %d] want=[%d %d]",
			queue[0].ID, queue[1].ID, first.ID, third.ID)
	}
}

func TestListWonItemsByUsername(t *testing.T) {
	setupTestDB(t)
	creator := seedUser(t, "tw-1", "alice")
	giveaway := seedGiveaway(t, creator.ID)

	item, _ := AddItem(giveaway.ID, "Mug", "M1")
	if err := AwardItem(item.ID, giveaway.ID, nil, "bob"); err != nil {
		t.Fatalf("AwardItem failed: %v", err)
	}

	winnings, err := ListWonItemsByUsername("bob")
	if err != nil {
		t.Fatalf("ListWonItemsByUsername failed: %v", err)
	}
	if len(winnings) != 1 || winnings[0].Name != "Mug" {
		t.Fatalf("unexpected winnings: %+v", winnings)
	}

	empty, err := ListWonItemsByUsername("carol")
	if err != nil {
		t.Fatalf("ListWonItemsByUsername failed: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("unexpected winnings for non-winner: %+v", empty)
	}
}
