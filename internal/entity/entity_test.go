package entity

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestParams_GetParam(t *testing.T) {
	addr := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	params := Params{
		AddressParam("seller", addr),
		UintParam("price", uint256.NewInt(100)),
		BoolParam("approved", true),
	}

	seller, err := params.GetParam("seller")
	require.NoError(t, err)
	got, err := seller.Address()
	require.NoError(t, err)
	require.Equal(t, addr, got)

	price, err := params.GetParam("price")
	require.NoError(t, err)
	v, err := price.Uint256()
	require.NoError(t, err)
	require.Equal(t, uint64(100), v.Uint64())

	_, err = params.GetParam("buyer")
	require.ErrorIs(t, err, ErrParamNotFound)
	require.False(t, params.HasParam("buyer"))
	require.True(t, params.HasParam("approved"))

	_, err = price.Address()
	require.Error(t, err)
}

func TestReceipt_GetEventLogs(t *testing.T) {
	nft := common.HexToAddress("0x01")
	mp := common.HexToAddress("0x02")
	r := Receipt{Logs: []EventLog{
		{EventName: NftTransferEvent, Address: nft},
		{EventName: MpItemBoughtEvent, Address: mp},
		{EventName: NftTransferEvent, Address: mp},
	}}

	require.Len(t, r.GetEventLogs(NftTransferEvent), 2)
	require.True(t, r.HasEventLog(MpItemBoughtEvent))
	require.False(t, r.HasEventLog(MpItemCanceledEvent))

	ev, err := r.GetEventLogForAddr(mp, NftTransferEvent)
	require.NoError(t, err)
	require.Equal(t, mp, ev.Address)

	_, err = r.GetEventLogForAddr(nft, MpItemBoughtEvent)
	require.Error(t, err)
}

func TestSlugs(t *testing.T) {
	nft := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	l := Listing{NftAddress: nft, TokenId: uint256.NewInt(0)}
	require.Equal(t, "listing-0x00000000000000000000000000000000000000aa-0", l.Slug())

	a := NftAction{Contract: "c", TokenId: "1", TxID: "tx", Action: MarketplaceSaleAction}
	b := NftAction{Contract: "c", TokenId: "1", TxID: "tx", Action: MarketplaceListingAction}
	require.Len(t, a.Slug(), 32)
	require.NotEqual(t, a.Slug(), b.Slug())
}

func TestNft_GatewayUri(t *testing.T) {
	n := Nft{TokenUri: "ipfs://bafybeig37ioir76s7mg5oobetncojcm3c3hxasyd4rvid4jqhy4gkaheg4/?filename=0-PUG.json"}
	require.Equal(t,
		"https://ipfs.io/ipfs/bafybeig37ioir76s7mg5oobetncojcm3c3hxasyd4rvid4jqhy4gkaheg4/?filename=0-PUG.json",
		n.GatewayUri("https://ipfs.io/"))

	n.TokenUri = "https://example.com/1.json"
	require.Equal(t, "https://example.com/1.json", n.GatewayUri("https://ipfs.io"))
}
