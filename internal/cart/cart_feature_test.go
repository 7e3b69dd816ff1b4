package cart

import (
	"context"
	"fmt"
	"testing"

	domain "github.com/aq2208/gorder-storefront/internal/entity"
	"github.com/cucumber/godog"
)

type cartTestContext struct {
	store    *Store
	products map[string]domain.Product
}

func (c *cartTestContext) reset() {
	c.store = NewStore()
	c.products = map[string]domain.Product{}
}

func (c *cartTestContext) anEmptyCart() error {
	c.store = NewStore()
	return nil
}

func (c *cartTestContext) theCatalogHasProductPriced(id string, price int) error {
	c.products[id] = domain.Product{ID: id, Name: id, Price: int64(price), Category: domain.CategoryArepas}
	return nil
}

func (c *cartTestContext) lookup(id string) (domain.Product, error) {
	p, ok := c.products[id]
	if !ok {
		return domain.Product{}, fmt.Errorf("unknown product %q", id)
	}
	return p, nil
}

func (c *cartTestContext) iAddToTheCart(id string) error {
	p, err := c.lookup(id)
	if err != nil {
		return err
	}
	c.store.AddItem(p)
	return nil
}

func (c *cartTestContext) iSetTheQuantityOfTo(id string, q int) error {
	c.store.UpdateQuantity(id, q)
	return nil
}

func (c *cartTestContext) iRemoveFromTheCart(id string) error {
	c.store.RemoveItem(id)
	return nil
}

func (c *cartTestContext) iClearTheCart() error {
	c.store.Clear()
	return nil
}

func (c *cartTestContext) theCartHasLines(n int) error {
	if got := len(c.store.Lines()); got != n {
		return fmt.Errorf("expected %d lines, got %d", n, got)
	}
	return nil
}

func (c *cartTestContext) theQuantityOfIs(id string, q int) error {
	if got := c.store.ItemQuantity(id); got != q {
		return fmt.Errorf("expected quantity %d for %s, got %d", q, id, got)
	}
	return nil
}

func (c *cartTestContext) theCartItemCountIs(n int) error {
	if got := c.store.TotalItems(); got != n {
		return fmt.Errorf("expected %d items, got %d", n, got)
	}
	return nil
}

func (c *cartTestContext) theCartTotalIs(total int) error {
	if got := c.store.TotalPrice(); got != int64(total) {
		return fmt.Errorf("expected total %d, got %d", total, got)
	}
	return nil
}

func InitializeCartScenario(ctx *godog.ScenarioContext) {
	tc := &cartTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	ctx.Step(`^an empty cart$`, tc.anEmptyCart)
	ctx.Step(`^the catalog has product "([^"]*)" priced (\d+)$`, tc.theCatalogHasProductPriced)

	ctx.Step(`^I add "([^"]*)" to the cart$`, tc.iAddToTheCart)
	ctx.Step(`^I set the quantity of "([^"]*)" to (-?\d+)$`, tc.iSetTheQuantityOfTo)
	ctx.Step(`^I remove "([^"]*)" from the cart$`, tc.iRemoveFromTheCart)
	ctx.Step(`^I clear the cart$`, tc.iClearTheCart)

	ctx.Step(`^the cart has (\d+) lines?$`, tc.theCartHasLines)
	ctx.Step(`^the quantity of "([^"]*)" is (\d+)$`, tc.theQuantityOfIs)
	ctx.Step(`^the cart item count is (\d+)$`, tc.theCartItemCountIs)
	ctx.Step(`^the cart total is (\d+)$`, tc.theCartTotalIs)
}

func TestCartFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeCartScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"../../features/cart.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
