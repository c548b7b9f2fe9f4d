package entity

type Marketplace string

const (
	NftMarketplace Marketplace = "NftMarketplace"
)

const (
	NftMarketplacePlatformFee uint = 0 // basis points
)

const (
	MpItemListedEvent   = "itemListed"
	MpItemCanceledEvent = "itemCanceled"
	MpItemBoughtEvent   = "itemBought"

	NftTransferEvent       = "Transfer"
	NftApprovalEvent       = "Approval"
	NftApprovalForAllEvent = "ApprovalForAll"
)
