package orders

type Status string

// Status lanjut dikelola sistem fulfillment; di sini hanya Processing yang dibuat.
const StatusProcessing Status = "Processing"
