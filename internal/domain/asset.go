package domain

// Rarity 资产稀有度等级
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
	RarityMythic    Rarity = "mythic"
)

// AssetAttributes 资产属性
type AssetAttributes struct {
	Color      string `json:"color"`      // 颜色
	Rarity     Rarity `json:"rarity"`     // 稀有度
	Power      uint32 `json:"power"`      // 力量值
	Shine      uint32 `json:"shine"`      // 光泽值
	Durability uint32 `json:"durability"` // 耐久值
}

// Asset 代币化资产领域模型
// 所有权登记簿（registry）是其唯一权威；市场引擎只读取 Creator/Owner
type Asset struct {
	ID            string          `json:"id"`             // 资产 ID（GEM-n，顺序分配）
	Name          string          `json:"name"`           // 资产名称
	Owner         string          `json:"owner"`          // 当前所有者
	Creator       string          `json:"creator"`        // 创作者（铸造者，版税接收方）
	Attributes    AssetAttributes `json:"attributes"`     // 资产属性
	MetadataURI   string          `json:"metadata_uri"`   // 元数据 URI
	CreatedAt     int64           `json:"created_at"`     // 铸造时间戳（Unix 秒）
	TransferCount uint32          `json:"transfer_count"` // 转移次数
}
