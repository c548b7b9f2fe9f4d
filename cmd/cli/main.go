package main

import (
	"fmt"
	"github.com/ZilDuck/nft-marketplace/internal/binding"
	"github.com/ZilDuck/nft-marketplace/internal/config"
	"github.com/ZilDuck/nft-marketplace/internal/config/di"
	"github.com/ZilDuck/nft-marketplace/internal/contract/basicnft"
	"github.com/ZilDuck/nft-marketplace/internal/contract/marketplace"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/ZilDuck/nft-marketplace/internal/rpcclient"
	"github.com/ZilDuck/nft-marketplace/internal/units"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"os"
)

var provider *rpcclient.Provider

func main() {
	config.Init()

	container, err := di.NewContainer(config.Get())
	if err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to build container")
	}
	provider, err = container.SafeGetProvider()
	if err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to create rpc client")
	}

	tokenFlag := &cli.Uint64Flag{Name: "token", Usage: "token id", Required: true}
	priceFlag := &cli.StringFlag{Name: "price", Usage: "price in ether", Required: true}

	app := &cli.App{
		Name:  "cli",
		Usage: "marketplace operations against a running node",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "from", Value: "deployer", Usage: "named account sending the transaction"},
		},
		Commands: []*cli.Command{
			{Name: "mint", Usage: "mint a BasicNft token", Action: mint},
			{Name: "approve", Usage: "approve the marketplace for a token", Action: approve, Flags: []cli.Flag{tokenFlag}},
			{Name: "list", Usage: "list a token for sale", Action: list, Flags: []cli.Flag{tokenFlag, priceFlag}},
			{Name: "update", Usage: "change the price of a listing", Action: update, Flags: []cli.Flag{tokenFlag, priceFlag}},
			{Name: "cancel", Usage: "cancel a listing", Action: cancel, Flags: []cli.Flag{tokenFlag}},
			{
				Name:   "buy",
				Usage:  "buy a listed token, paying the listing price unless --value is set",
				Action: buy,
				Flags:  []cli.Flag{tokenFlag, &cli.StringFlag{Name: "value", Usage: "amount to pay in ether"}},
			},
			{Name: "proceeds", Usage: "show the proceeds of the sender", Action: proceeds},
			{Name: "withdraw", Usage: "withdraw the proceeds of the sender", Action: withdraw},
			{Name: "listing", Usage: "show a listing", Action: listing, Flags: []cli.Flag{tokenFlag}},
			{Name: "owner", Usage: "show the owner of a token", Action: owner, Flags: []cli.Flag{tokenFlag}},
			{Name: "token", Usage: "show owner and metadata uri of a token", Action: token, Flags: []cli.Flag{tokenFlag}},
		},
	}

	if err := app.Run(os.Args); err != nil {
		if reason, ok := binding.Reason(err); ok {
			zap.L().With(zap.String("reason", reason)).Fatal("Transaction reverted")
		}
		zap.L().With(zap.Error(err)).Fatal("Command failed")
	}
}

func contracts(c *cli.Context) (*binding.BasicNft, *binding.NftMarketplace, error) {
	from, err := provider.NamedAccount(c.Context, c.String("from"))
	if err != nil {
		return nil, nil, err
	}

	nftDeployment, err := provider.GetDeployment(c.Context, basicnft.ContractName)
	if err != nil {
		return nil, nil, err
	}
	marketDeployment, err := provider.GetDeployment(c.Context, marketplace.ContractName)
	if err != nil {
		return nil, nil, err
	}

	return binding.NewBasicNft(provider, nftDeployment.Address, from),
		binding.NewNftMarketplace(provider, marketDeployment.Address, from),
		nil
}

func tokenId(c *cli.Context) *uint256.Int {
	return uint256.NewInt(c.Uint64("token"))
}

func printReceipt(receipt *entity.Receipt) {
	fmt.Printf("tx: %s block: %d\n", receipt.TxHash.Hex(), receipt.BlockNumber)
	for _, log := range receipt.Logs {
		fmt.Printf("  %s", log.EventName)
		for _, p := range log.Params {
			fmt.Printf(" %s=%s", p.VName, p.Value)
		}
		fmt.Println()
	}
}

func mint(c *cli.Context) error {
	nft, _, err := contracts(c)
	if err != nil {
		return err
	}

	receipt, err := nft.Mint(c.Context)
	if err != nil {
		return err
	}
	id, err := nft.MintedTokenId(receipt)
	if err != nil {
		return err
	}

	printReceipt(receipt)
	fmt.Printf("minted token %s\n", id.Dec())
	return nil
}

func approve(c *cli.Context) error {
	nft, market, err := contracts(c)
	if err != nil {
		return err
	}

	receipt, err := nft.Approve(c.Context, market.Address(), tokenId(c))
	if err != nil {
		return err
	}

	printReceipt(receipt)
	return nil
}

func list(c *cli.Context) error {
	nft, market, err := contracts(c)
	if err != nil {
		return err
	}
	price, err := units.ParseEther(c.String("price"))
	if err != nil {
		return err
	}

	receipt, err := market.ListItem(c.Context, nft.Address(), tokenId(c), price)
	if err != nil {
		return err
	}

	printReceipt(receipt)
	return nil
}

func update(c *cli.Context) error {
	nft, market, err := contracts(c)
	if err != nil {
		return err
	}
	price, err := units.ParseEther(c.String("price"))
	if err != nil {
		return err
	}

	receipt, err := market.UpdateListing(c.Context, nft.Address(), tokenId(c), price)
	if err != nil {
		return err
	}

	printReceipt(receipt)
	return nil
}

func cancel(c *cli.Context) error {
	nft, market, err := contracts(c)
	if err != nil {
		return err
	}

	receipt, err := market.CancelListing(c.Context, nft.Address(), tokenId(c))
	if err != nil {
		return err
	}

	printReceipt(receipt)
	return nil
}

func buy(c *cli.Context) error {
	nft, market, err := contracts(c)
	if err != nil {
		return err
	}

	var value *uint256.Int
	if c.String("value") != "" {
		if value, err = units.ParseEther(c.String("value")); err != nil {
			return err
		}
	} else {
		l, err := market.GetListing(c.Context, nft.Address(), tokenId(c))
		if err != nil {
			return err
		}
		value = l.Price
	}

	receipt, err := market.BuyItem(c.Context, nft.Address(), tokenId(c), value)
	if err != nil {
		return err
	}

	printReceipt(receipt)
	return nil
}

func proceeds(c *cli.Context) error {
	_, market, err := contracts(c)
	if err != nil {
		return err
	}
	seller, err := provider.NamedAccount(c.Context, c.String("from"))
	if err != nil {
		return err
	}

	amount, err := market.GetProceeds(c.Context, seller)
	if err != nil {
		return err
	}

	fmt.Printf("%s ETH\n", units.FormatEther(amount))
	return nil
}

func withdraw(c *cli.Context) error {
	_, market, err := contracts(c)
	if err != nil {
		return err
	}

	receipt, err := market.WithdrawProceeds(c.Context)
	if err != nil {
		return err
	}

	printReceipt(receipt)
	return nil
}

func listing(c *cli.Context) error {
	nft, market, err := contracts(c)
	if err != nil {
		return err
	}

	l, err := market.GetListing(c.Context, nft.Address(), tokenId(c))
	if err != nil {
		return err
	}

	fmt.Printf("seller: %s price: %s ETH\n", l.Seller.Hex(), units.FormatEther(l.Price))
	return nil
}

func owner(c *cli.Context) error {
	nft, _, err := contracts(c)
	if err != nil {
		return err
	}

	addr, err := nft.OwnerOf(c.Context, tokenId(c))
	if err != nil {
		return err
	}

	fmt.Println(addressOrNone(addr))
	return nil
}

func addressOrNone(addr common.Address) string {
	if addr == (common.Address{}) {
		return "none"
	}
	return addr.Hex()
}

func token(c *cli.Context) error {
	nft, _, err := contracts(c)
	if err != nil {
		return err
	}

	t, err := provider.GetNft(c.Context, nft.Address(), c.Uint64("token"))
	if err != nil {
		return err
	}

	fmt.Printf("owner: %s\nuri: %s\ngateway: %s\n", addressOrNone(t.Owner), t.TokenUri, t.GatewayUri(config.Get().IpfsGateway))
	return nil
}
