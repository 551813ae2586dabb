package rules

import (
	"testing"

	"circdesk/pkg/client"
	"circdesk/pkg/model"
	"circdesk/test/integration/testutil"
)

func TestReplaceAndListRules(t *testing.T) {
	env := testutil.NewTestEnv()
	mongo := env.Setup(t)
	defer env.Cleanup(t, mongo)
	rulesClient := client.NewRulesClient(env.ServerURL)
	mongo.CleanCollection(t, testutil.RulesCollection)

	rules := []*model.RuleEntry{
		testutil.NewRuleBuilder().For(model.GroupStudent, model.MaterialRegular).Build(),
		testutil.NewRuleBuilder().For(model.GroupTeacher, model.MaterialRegular).
			WithLoanDays(30).WithMaxItems(20).WithFinePerDay(10).Build(),
	}

	resp := testutil.Do(t)(rulesClient.ReplaceAll(testutil.OperatorID, rules))
	testutil.AssertStatusCode(t, resp, 200)

	resp = testutil.Do(t)(rulesClient.GetAll())
	testutil.AssertStatusCode(t, resp, 200)

	listed, err := rulesClient.DecodeRules(resp)
	if err != nil {
		t.Fatalf("failed to decode rules: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("got %d rules, want 2", len(listed))
	}

	// Upsert again with a changed fine; entry count stays stable.
	rules[0].FinePerDay = 75
	resp = testutil.Do(t)(rulesClient.ReplaceAll(testutil.OperatorID, rules))
	testutil.AssertStatusCode(t, resp, 200)

	if n := mongo.CountDocuments(t, testutil.RulesCollection); n != 2 {
		t.Errorf("rule count after re-upsert = %d, want 2", n)
	}
}

func TestRejectsHalfZeroedRule(t *testing.T) {
	env := testutil.NewTestEnv()
	mongo := env.Setup(t)
	defer env.Cleanup(t, mongo)
	rulesClient := client.NewRulesClient(env.ServerURL)

	rules := []*model.RuleEntry{
		testutil.NewRuleBuilder().For(model.GroupStudent, model.MaterialReference).
			WithLoanDays(0).WithMaxItems(3).Build(),
	}

	resp := testutil.Do(t)(rulesClient.ReplaceAll(testutil.OperatorID, rules))
	testutil.AssertStatusCode(t, resp, 422)
}

func TestDuplicatePairRejected(t *testing.T) {
	env := testutil.NewTestEnv()
	mongo := env.Setup(t)
	defer env.Cleanup(t, mongo)
	rulesClient := client.NewRulesClient(env.ServerURL)

	rules := []*model.RuleEntry{
		testutil.NewRuleBuilder().For(model.GroupStudent, model.MaterialRegular).Build(),
		testutil.NewRuleBuilder().For(model.GroupStudent, model.MaterialRegular).WithLoanDays(7).Build(),
	}

	resp := testutil.Do(t)(rulesClient.ReplaceAll(testutil.OperatorID, rules))
	testutil.AssertStatusCode(t, resp, 400)
}
