package market

// maxBuyOrders bounds the candidate order list of one Buy
const maxBuyOrders = 64
