package accounts

import (
	"testing"

	"circdesk/pkg/client"
	"circdesk/pkg/model"
	"circdesk/test/integration/testutil"
)

func TestPaymentReducesBalance(t *testing.T) {
	env := testutil.NewTestEnv()
	mongo := env.Setup(t)
	defer env.Cleanup(t, mongo)
	accounts := client.NewAccountsClient(env.ServerURL)

	patron := testutil.NewPatronBuilder().WithBalance(300).Build()
	mongo.Insert(t, testutil.PatronsCollection, patron)

	resp := testutil.Do(t)(accounts.RecordPayment(testutil.OperatorID, patron.ID,
		map[string]interface{}{
			"amount_cents": 200,
			"method":       "CASH",
		}))
	testutil.AssertStatusCode(t, resp, 201)

	var result struct {
		Data struct {
			Transaction model.Transaction `json:"transaction"`
			Balance     model.Cents       `json:"balance"`
			Blocked     bool              `json:"blocked"`
		} `json:"data"`
	}
	if err := resp.DecodeJSON(&result); err != nil {
		t.Fatalf("failed to decode ledger entry: %v", err)
	}
	if result.Data.Balance != 100 {
		t.Errorf("balance = %d, want 100", result.Data.Balance)
	}
	if !result.Data.Blocked {
		t.Error("patron still owing should remain blocked")
	}
	if result.Data.Transaction.Actor != testutil.OperatorID {
		t.Errorf("actor = %q, want operator id", result.Data.Transaction.Actor)
	}
}

func TestOverpaymentRejected(t *testing.T) {
	env := testutil.NewTestEnv()
	mongo := env.Setup(t)
	defer env.Cleanup(t, mongo)
	accounts := client.NewAccountsClient(env.ServerURL)

	patron := testutil.NewPatronBuilder().WithBalance(100).Build()
	mongo.Insert(t, testutil.PatronsCollection, patron)

	resp := testutil.Do(t)(accounts.RecordPayment(testutil.OperatorID, patron.ID,
		map[string]interface{}{
			"amount_cents": 500,
			"method":       "CASH",
		}))
	testutil.AssertStatusCode(t, resp, 409)

	// Balance is untouched and no ledger entry was written.
	if n := mongo.CountDocuments(t, testutil.TransactionsCollection); n != 0 {
		t.Errorf("transaction count = %d, want 0", n)
	}
}

func TestWaiverRequiresReason(t *testing.T) {
	env := testutil.NewTestEnv()
	mongo := env.Setup(t)
	defer env.Cleanup(t, mongo)
	accounts := client.NewAccountsClient(env.ServerURL)

	patron := testutil.NewPatronBuilder().WithBalance(400).Build()
	mongo.Insert(t, testutil.PatronsCollection, patron)

	resp := testutil.Do(t)(accounts.Waive(testutil.OperatorID, patron.ID,
		map[string]interface{}{
			"amount_cents": 400,
		}))
	testutil.AssertStatusCode(t, resp, 422)

	resp = testutil.Do(t)(accounts.Waive(testutil.OperatorID, patron.ID,
		map[string]interface{}{
			"amount_cents": 400,
			"reason":       "damaged before checkout",
		}))
	testutil.AssertStatusCode(t, resp, 201)
}

func TestLedgerListingAndRecompute(t *testing.T) {
	env := testutil.NewTestEnv()
	mongo := env.Setup(t)
	defer env.Cleanup(t, mongo)
	accounts := client.NewAccountsClient(env.ServerURL)

	patron := testutil.NewPatronBuilder().Build()
	mongo.Insert(t, testutil.PatronsCollection, patron)

	resp := testutil.Do(t)(accounts.Assess(testutil.OperatorID, patron.ID,
		map[string]interface{}{
			"amount_cents": 1000,
			"type":         "DAMAGE_ASSESSMENT",
			"note":         "cracked spine",
		}))
	testutil.AssertStatusCode(t, resp, 201)

	resp = testutil.Do(t)(accounts.RecordPayment(testutil.OperatorID, patron.ID,
		map[string]interface{}{
			"amount_cents": 600,
			"method":       "CASH",
		}))
	testutil.AssertStatusCode(t, resp, 201)

	resp = testutil.Do(t)(accounts.GetTransactions(patron.ID, 10, 0))
	testutil.AssertStatusCode(t, resp, 200)

	txns, meta, err := accounts.DecodeTransactions(resp)
	if err != nil {
		t.Fatalf("failed to decode transactions: %v", err)
	}
	if meta.TotalCount != 2 || len(txns) != 2 {
		t.Fatalf("got %d transactions (total %d), want 2", len(txns), meta.TotalCount)
	}

	// Corrupt the stored balance, then let recompute repair it from the log.
	mongo.UpdateOne(t, testutil.PatronsCollection,
		map[string]interface{}{"_id": patron.ID},
		map[string]interface{}{"$set": map[string]interface{}{"balance": 9999}},
	)

	resp = testutil.Do(t)(accounts.Recompute(testutil.OperatorID, patron.ID))
	testutil.AssertStatusCode(t, resp, 200)

	resp = testutil.Do(t)(accounts.GetPatron(patron.ID))
	repaired, err := accounts.DecodePatron(resp)
	if err != nil {
		t.Fatalf("failed to decode patron: %v", err)
	}
	if repaired.Balance != 400 {
		t.Errorf("recomputed balance = %d, want 400", repaired.Balance)
	}
}
