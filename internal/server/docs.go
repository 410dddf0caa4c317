package server

import (
	"sort"
	"strings"

	"github.com/eternalApril/umbra/internal/resp"
)

type commandMetadata struct {
	arity    int      // Arity includes the command name itself
	flags    []string // read, write, fast, denyoom, etc
	firstKey int      // 1-based index of the first key
	lastKey  int      // 1-based index of the last key
	step     int      // Step count for finding keys
}

var (
	commandRegistry = map[string]commandMetadata{
		"PING":             {-1, []string{"fast", "stale"}, 0, 0, 0},
		"ECHO":             {2, []string{"fast"}, 0, 0, 0},
		"QUIT":             {-1, []string{"fast"}, 0, 0, 0},
		"COMMAND":          {-1, []string{"random", "loading", "stale"}, 0, 0, 0},
		"DEL":              {-2, []string{"write"}, 1, -1, 1},
		"UNLINK":           {-2, []string{"write", "fast"}, 1, -1, 1},
		"EXISTS":           {-2, []string{"readonly", "fast"}, 1, -1, 1},
		"TYPE":             {2, []string{"readonly", "fast"}, 1, 1, 1},
		"EXPIRE":           {-3, []string{"write", "fast"}, 1, 1, 1},
		"PEXPIRE":          {-3, []string{"write", "fast"}, 1, 1, 1},
		"EXPIREAT":         {-3, []string{"write", "fast"}, 1, 1, 1},
		"PEXPIREAT":        {-3, []string{"write", "fast"}, 1, 1, 1},
		"TTL":              {2, []string{"readonly", "fast"}, 1, 1, 1},
		"PTTL":             {2, []string{"readonly", "fast"}, 1, 1, 1},
		"PERSIST":          {2, []string{"write", "fast"}, 1, 1, 1},
		"KEYS":             {2, []string{"readonly"}, 0, 0, 0},
		"RENAME":           {3, []string{"write"}, 1, 2, 1},
		"RENAMENX":         {3, []string{"write", "fast"}, 1, 2, 1},
		"RANDOMKEY":        {1, []string{"readonly", "random"}, 0, 0, 0},
		"DBSIZE":           {1, []string{"readonly", "fast"}, 0, 0, 0},
		"FLUSHDB":          {-1, []string{"write"}, 0, 0, 0},
		"FLUSHALL":         {-1, []string{"write"}, 0, 0, 0},
		"SORT":             {-2, []string{"write", "denyoom", "movablekeys"}, 1, 1, 1},
		"GET":              {2, []string{"readonly", "fast"}, 1, 1, 1},
		"SET":              {-3, []string{"write", "denyoom"}, 1, 1, 1},
		"SETNX":            {3, []string{"write", "denyoom", "fast"}, 1, 1, 1},
		"SETEX":            {4, []string{"write", "denyoom"}, 1, 1, 1},
		"PSETEX":           {4, []string{"write", "denyoom"}, 1, 1, 1},
		"GETSET":           {3, []string{"write", "denyoom", "fast"}, 1, 1, 1},
		"GETDEL":           {2, []string{"write", "fast"}, 1, 1, 1},
		"MGET":             {-2, []string{"readonly", "fast"}, 1, -1, 1},
		"MSET":             {-3, []string{"write", "denyoom"}, 1, -1, 2},
		"MSETNX":           {-3, []string{"write", "denyoom"}, 1, -1, 2},
		"APPEND":           {3, []string{"write", "denyoom", "fast"}, 1, 1, 1},
		"STRLEN":           {2, []string{"readonly", "fast"}, 1, 1, 1},
		"INCR":             {2, []string{"write", "denyoom", "fast"}, 1, 1, 1},
		"DECR":             {2, []string{"write", "denyoom", "fast"}, 1, 1, 1},
		"INCRBY":           {3, []string{"write", "denyoom", "fast"}, 1, 1, 1},
		"DECRBY":           {3, []string{"write", "denyoom", "fast"}, 1, 1, 1},
		"INCRBYFLOAT":      {3, []string{"write", "denyoom", "fast"}, 1, 1, 1},
		"GETRANGE":         {4, []string{"readonly"}, 1, 1, 1},
		"SETRANGE":         {4, []string{"write", "denyoom"}, 1, 1, 1},
		"SUBSTR":           {4, []string{"readonly"}, 1, 1, 1},
		"LPUSH":            {-3, []string{"write", "denyoom", "fast"}, 1, 1, 1},
		"RPUSH":            {-3, []string{"write", "denyoom", "fast"}, 1, 1, 1},
		"LPUSHX":           {-3, []string{"write", "denyoom", "fast"}, 1, 1, 1},
		"RPUSHX":           {-3, []string{"write", "denyoom", "fast"}, 1, 1, 1},
		"LPOP":             {-2, []string{"write", "fast"}, 1, 1, 1},
		"RPOP":             {-2, []string{"write", "fast"}, 1, 1, 1},
		"LLEN":             {2, []string{"readonly", "fast"}, 1, 1, 1},
		"LRANGE":           {4, []string{"readonly"}, 1, 1, 1},
		"LINDEX":           {3, []string{"readonly"}, 1, 1, 1},
		"LSET":             {4, []string{"write", "denyoom"}, 1, 1, 1},
		"LTRIM":            {4, []string{"write"}, 1, 1, 1},
		"LREM":             {4, []string{"write"}, 1, 1, 1},
		"LINSERT":          {5, []string{"write", "denyoom"}, 1, 1, 1},
		"RPOPLPUSH":        {3, []string{"write", "denyoom"}, 1, 2, 1},
		"LMOVE":            {5, []string{"write", "denyoom"}, 1, 2, 1},
		"BLPOP":            {-3, []string{"write", "blocking"}, 1, -2, 1},
		"BRPOP":            {-3, []string{"write", "blocking"}, 1, -2, 1},
		"BRPOPLPUSH":       {4, []string{"write", "denyoom", "blocking"}, 1, 2, 1},
		"BLMOVE":           {6, []string{"write", "denyoom", "blocking"}, 1, 2, 1},
		"HSET":             {-4, []string{"write", "denyoom", "fast"}, 1, 1, 1},
		"HSETNX":           {4, []string{"write", "denyoom", "fast"}, 1, 1, 1},
		"HMSET":            {-4, []string{"write", "denyoom", "fast"}, 1, 1, 1},
		"HGET":             {3, []string{"readonly", "fast"}, 1, 1, 1},
		"HMGET":            {-3, []string{"readonly", "fast"}, 1, 1, 1},
		"HGETALL":          {2, []string{"readonly"}, 1, 1, 1},
		"HDEL":             {-3, []string{"write", "fast"}, 1, 1, 1},
		"HEXISTS":          {3, []string{"readonly", "fast"}, 1, 1, 1},
		"HLEN":             {2, []string{"readonly", "fast"}, 1, 1, 1},
		"HKEYS":            {2, []string{"readonly"}, 1, 1, 1},
		"HVALS":            {2, []string{"readonly"}, 1, 1, 1},
		"HINCRBY":          {4, []string{"write", "denyoom", "fast"}, 1, 1, 1},
		"HINCRBYFLOAT":     {4, []string{"write", "denyoom", "fast"}, 1, 1, 1},
		"SADD":             {-3, []string{"write", "denyoom", "fast"}, 1, 1, 1},
		"SREM":             {-3, []string{"write", "fast"}, 1, 1, 1},
		"SISMEMBER":        {3, []string{"readonly", "fast"}, 1, 1, 1},
		"SMEMBERS":         {2, []string{"readonly"}, 1, 1, 1},
		"SCARD":            {2, []string{"readonly", "fast"}, 1, 1, 1},
		"SPOP":             {-2, []string{"write", "random", "fast"}, 1, 1, 1},
		"SRANDMEMBER":      {-2, []string{"readonly", "random"}, 1, 1, 1},
		"SMOVE":            {4, []string{"write", "fast"}, 1, 2, 1},
		"SINTER":           {-2, []string{"readonly"}, 1, -1, 1},
		"SUNION":           {-2, []string{"readonly"}, 1, -1, 1},
		"SDIFF":            {-2, []string{"readonly"}, 1, -1, 1},
		"SINTERSTORE":      {-3, []string{"write", "denyoom"}, 1, -1, 1},
		"SUNIONSTORE":      {-3, []string{"write", "denyoom"}, 1, -1, 1},
		"SDIFFSTORE":       {-3, []string{"write", "denyoom"}, 1, -1, 1},
		"ZADD":             {-4, []string{"write", "denyoom", "fast"}, 1, 1, 1},
		"ZREM":             {-3, []string{"write", "fast"}, 1, 1, 1},
		"ZSCORE":           {3, []string{"readonly", "fast"}, 1, 1, 1},
		"ZMSCORE":          {-3, []string{"readonly", "fast"}, 1, 1, 1},
		"ZINCRBY":          {4, []string{"write", "denyoom", "fast"}, 1, 1, 1},
		"ZCARD":            {2, []string{"readonly", "fast"}, 1, 1, 1},
		"ZCOUNT":           {4, []string{"readonly", "fast"}, 1, 1, 1},
		"ZRANK":            {3, []string{"readonly", "fast"}, 1, 1, 1},
		"ZREVRANK":         {3, []string{"readonly", "fast"}, 1, 1, 1},
		"ZRANGE":           {-4, []string{"readonly"}, 1, 1, 1},
		"ZREVRANGE":        {-4, []string{"readonly"}, 1, 1, 1},
		"ZRANGEBYSCORE":    {-4, []string{"readonly"}, 1, 1, 1},
		"ZREVRANGEBYSCORE": {-4, []string{"readonly"}, 1, 1, 1},
		"ZREMRANGEBYRANK":  {4, []string{"write"}, 1, 1, 1},
		"ZREMRANGEBYSCORE": {4, []string{"write"}, 1, 1, 1},
		"ZPOPMIN":          {-2, []string{"write", "fast"}, 1, 1, 1},
		"ZPOPMAX":          {-2, []string{"write", "fast"}, 1, 1, 1},
		"ZUNIONSTORE":      {-4, []string{"write", "denyoom", "movablekeys"}, 1, 1, 1},
		"ZINTERSTORE":      {-4, []string{"write", "denyoom", "movablekeys"}, 1, 1, 1},
		"ZDIFFSTORE":       {-4, []string{"write", "denyoom", "movablekeys"}, 1, 1, 1},
		"WATCH":            {-2, []string{"noscript", "loading", "stale", "fast"}, 1, -1, 1},
		"UNWATCH":          {1, []string{"noscript", "loading", "stale", "fast"}, 0, 0, 0},
		"MULTI":            {1, []string{"noscript", "loading", "stale", "fast"}, 0, 0, 0},
		"EXEC":             {1, []string{"noscript", "loading", "stale", "skip_slowlog"}, 0, 0, 0},
		"DISCARD":          {1, []string{"noscript", "loading", "stale", "fast"}, 0, 0, 0},
		"PUBLISH":          {3, []string{"pubsub", "loading", "stale", "fast"}, 0, 0, 0},
		"SUBSCRIBE":        {-2, []string{"pubsub", "noscript", "loading", "stale"}, 0, 0, 0},
		"UNSUBSCRIBE":      {-1, []string{"pubsub", "noscript", "loading", "stale"}, 0, 0, 0},
		"PSUBSCRIBE":       {-2, []string{"pubsub", "noscript", "loading", "stale"}, 0, 0, 0},
		"PUNSUBSCRIBE":     {-1, []string{"pubsub", "noscript", "loading", "stale"}, 0, 0, 0},
		"PUBSUB":           {-2, []string{"pubsub", "random", "loading", "stale"}, 0, 0, 0},
	}
)

// commandDoc stores a description for the command
type commandDoc struct {
	summary    string
	complexity string
	group      string
	since      string
}

// commandDocsRegistry documentation registry
var commandDocsRegistry = map[string]commandDoc{
	"PING": {
		summary:    "Returns the server's liveliness response.",
		complexity: "O(1)",
		group:      "connection",
		since:      "1.0.0",
	},
	"ECHO": {
		summary:    "Returns the given string.",
		complexity: "O(1)",
		group:      "connection",
		since:      "1.0.0",
	},
	"QUIT": {
		summary:    "Closes the connection.",
		complexity: "O(1)",
		group:      "connection",
		since:      "1.0.0",
	},
	"COMMAND": {
		summary:    "Returns detailed information about all commands.",
		complexity: "O(N) where N is the number of commands to look up.",
		group:      "server",
		since:      "2.8.13",
	},
	"DEL": {
		summary:    "Deletes one or more keys.",
		complexity: "O(N) where N is the number of keys that will be removed.",
		group:      "generic",
		since:      "1.0.0",
	},
	"UNLINK": {
		summary:    "Asynchronously deletes one or more keys.",
		complexity: "O(1) for each key removed regardless of its size.",
		group:      "generic",
		since:      "4.0.0",
	},
	"EXISTS": {
		summary:    "Determines whether one or more keys exist.",
		complexity: "O(N) where N is the number of keys to check.",
		group:      "generic",
		since:      "1.0.0",
	},
	"TYPE": {
		summary:    "Determines the type of value stored at a key.",
		complexity: "O(1)",
		group:      "generic",
		since:      "1.0.0",
	},
	"EXPIRE": {
		summary:    "Sets the expiration time of a key in seconds.",
		complexity: "O(1)",
		group:      "generic",
		since:      "1.0.0",
	},
	"PEXPIRE": {
		summary:    "Sets the expiration time of a key in milliseconds.",
		complexity: "O(1)",
		group:      "generic",
		since:      "2.6.0",
	},
	"EXPIREAT": {
		summary:    "Sets the expiration time of a key to a Unix timestamp.",
		complexity: "O(1)",
		group:      "generic",
		since:      "1.2.0",
	},
	"PEXPIREAT": {
		summary:    "Sets the expiration time of a key to a Unix milliseconds timestamp.",
		complexity: "O(1)",
		group:      "generic",
		since:      "2.6.0",
	},
	"TTL": {
		summary:    "Returns the expiration time in seconds of a key.",
		complexity: "O(1)",
		group:      "generic",
		since:      "1.0.0",
	},
	"PTTL": {
		summary:    "Returns the expiration time in milliseconds of a key.",
		complexity: "O(1)",
		group:      "generic",
		since:      "2.6.0",
	},
	"PERSIST": {
		summary:    "Removes the expiration time of a key.",
		complexity: "O(1)",
		group:      "generic",
		since:      "2.2.0",
	},
	"KEYS": {
		summary:    "Returns all key names that match a pattern.",
		complexity: "O(N) with N being the number of keys in the database.",
		group:      "generic",
		since:      "1.0.0",
	},
	"RENAME": {
		summary:    "Renames a key and overwrites the destination.",
		complexity: "O(1)",
		group:      "generic",
		since:      "1.0.0",
	},
	"RENAMENX": {
		summary:    "Renames a key only when the target key name doesn't exist.",
		complexity: "O(1)",
		group:      "generic",
		since:      "1.0.0",
	},
	"RANDOMKEY": {
		summary:    "Returns a random key name from the database.",
		complexity: "O(1)",
		group:      "generic",
		since:      "1.0.0",
	},
	"DBSIZE": {
		summary:    "Returns the number of keys in the database.",
		complexity: "O(1)",
		group:      "server",
		since:      "1.0.0",
	},
	"FLUSHDB": {
		summary:    "Removes all keys from the current database.",
		complexity: "O(N) where N is the number of keys in the selected database.",
		group:      "server",
		since:      "1.0.0",
	},
	"FLUSHALL": {
		summary:    "Removes all keys from all databases.",
		complexity: "O(N) where N is the total number of keys in all databases.",
		group:      "server",
		since:      "1.0.0",
	},
	"SORT": {
		summary:    "Sorts the elements in a list, a set, or a sorted set, optionally storing the result.",
		complexity: "O(N+M*log(M)) where N is the number of elements in the list or set to sort, and M the number of returned elements.",
		group:      "generic",
		since:      "1.0.0",
	},
	"GET": {
		summary:    "Returns the string value of a key.",
		complexity: "O(1)",
		group:      "string",
		since:      "1.0.0",
	},
	"SET": {
		summary:    "Sets the string value of a key, ignoring its type. The key is created if it doesn't exist.",
		complexity: "O(1)",
		group:      "string",
		since:      "1.0.0",
	},
	"SETNX": {
		summary:    "Set the string value of a key only when the key doesn't exist.",
		complexity: "O(1)",
		group:      "string",
		since:      "1.0.0",
	},
	"SETEX": {
		summary:    "Sets the string value and expiration time of a key. Creates the key if it doesn't exist.",
		complexity: "O(1)",
		group:      "string",
		since:      "2.0.0",
	},
	"PSETEX": {
		summary:    "Sets both string value and expiration time in milliseconds of a key. The key is created if it doesn't exist.",
		complexity: "O(1)",
		group:      "string",
		since:      "2.6.0",
	},
	"GETSET": {
		summary:    "Returns the previous string value of a key after setting it to a new value.",
		complexity: "O(1)",
		group:      "string",
		since:      "1.0.0",
	},
	"GETDEL": {
		summary:    "Returns the string value of a key after deleting the key.",
		complexity: "O(1)",
		group:      "string",
		since:      "6.2.0",
	},
	"MGET": {
		summary:    "Atomically returns the string values of one or more keys.",
		complexity: "O(N) where N is the number of keys to retrieve.",
		group:      "string",
		since:      "1.0.0",
	},
	"MSET": {
		summary:    "Atomically creates or modifies the string values of one or more keys.",
		complexity: "O(N) where N is the number of keys to set.",
		group:      "string",
		since:      "1.0.1",
	},
	"MSETNX": {
		summary:    "Atomically modifies the string values of one or more keys only when all keys don't exist.",
		complexity: "O(N) where N is the number of keys to set.",
		group:      "string",
		since:      "1.0.1",
	},
	"APPEND": {
		summary:    "Appends a string to the value of a key. Creates the key if it doesn't exist.",
		complexity: "O(1)",
		group:      "string",
		since:      "2.0.0",
	},
	"STRLEN": {
		summary:    "Returns the length of a string value.",
		complexity: "O(1)",
		group:      "string",
		since:      "2.2.0",
	},
	"INCR": {
		summary:    "Increments the integer value of a key by one. Uses 0 as initial value if the key doesn't exist.",
		complexity: "O(1)",
		group:      "string",
		since:      "1.0.0",
	},
	"DECR": {
		summary:    "Decrements the integer value of a key by one. Uses 0 as initial value if the key doesn't exist.",
		complexity: "O(1)",
		group:      "string",
		since:      "1.0.0",
	},
	"INCRBY": {
		summary:    "Increments the integer value of a key by a number. Uses 0 as initial value if the key doesn't exist.",
		complexity: "O(1)",
		group:      "string",
		since:      "1.0.0",
	},
	"DECRBY": {
		summary:    "Decrements a number from the integer value of a key. Uses 0 as initial value if the key doesn't exist.",
		complexity: "O(1)",
		group:      "string",
		since:      "1.0.0",
	},
	"INCRBYFLOAT": {
		summary:    "Increment the floating point value of a key by a number. Uses 0 as initial value if the key doesn't exist.",
		complexity: "O(1)",
		group:      "string",
		since:      "2.6.0",
	},
	"GETRANGE": {
		summary:    "Returns a substring of the string stored at a key.",
		complexity: "O(N) where N is the length of the returned string.",
		group:      "string",
		since:      "2.4.0",
	},
	"SUBSTR": {
		summary:    "Returns a substring from a string value.",
		complexity: "O(N) where N is the length of the returned string.",
		group:      "string",
		since:      "1.0.0",
	},
	"SETRANGE": {
		summary:    "Overwrites a part of a string value with another by an offset. Creates the key if it doesn't exist.",
		complexity: "O(1), not counting the time taken to copy the new string in place.",
		group:      "string",
		since:      "2.2.0",
	},
	"LPUSH": {
		summary:    "Prepends one or more elements to a list. Creates the key if it doesn't exist.",
		complexity: "O(1) for each element added.",
		group:      "list",
		since:      "1.0.0",
	},
	"RPUSH": {
		summary:    "Appends one or more elements to a list. Creates the key if it doesn't exist.",
		complexity: "O(1) for each element added.",
		group:      "list",
		since:      "1.0.0",
	},
	"LPUSHX": {
		summary:    "Prepends one or more elements to a list only when the list exists.",
		complexity: "O(1) for each element added.",
		group:      "list",
		since:      "2.2.0",
	},
	"RPUSHX": {
		summary:    "Appends an element to a list only when the list exists.",
		complexity: "O(1) for each element added.",
		group:      "list",
		since:      "2.2.0",
	},
	"LPOP": {
		summary:    "Returns the first elements in a list after removing it. Deletes the list if the last element was popped.",
		complexity: "O(N) where N is the number of elements returned",
		group:      "list",
		since:      "1.0.0",
	},
	"RPOP": {
		summary:    "Returns and removes the last elements of a list. Deletes the list if the last element was popped.",
		complexity: "O(N) where N is the number of elements returned",
		group:      "list",
		since:      "1.0.0",
	},
	"LLEN": {
		summary:    "Returns the length of a list.",
		complexity: "O(1)",
		group:      "list",
		since:      "1.0.0",
	},
	"LRANGE": {
		summary:    "Returns a range of elements from a list.",
		complexity: "O(S+N) where S is the distance of start offset from HEAD and N is the number of elements in the range.",
		group:      "list",
		since:      "1.0.0",
	},
	"LINDEX": {
		summary:    "Returns an element from a list by its index.",
		complexity: "O(N) where N is the number of elements to traverse to get to the element at index.",
		group:      "list",
		since:      "1.0.0",
	},
	"LSET": {
		summary:    "Sets the value of an element in a list by its index.",
		complexity: "O(N) where N is the length of the list.",
		group:      "list",
		since:      "1.0.0",
	},
	"LTRIM": {
		summary:    "Removes elements from both ends a list. Deletes the list if all elements were trimmed.",
		complexity: "O(N) where N is the number of elements to be removed by the operation.",
		group:      "list",
		since:      "1.0.0",
	},
	"LREM": {
		summary:    "Removes elements from a list. Deletes the list if the last element was removed.",
		complexity: "O(N+M) where N is the length of the list and M is the number of elements removed.",
		group:      "list",
		since:      "1.0.0",
	},
	"LINSERT": {
		summary:    "Inserts an element before or after another element in a list.",
		complexity: "O(N) where N is the number of elements to traverse before seeing the value pivot.",
		group:      "list",
		since:      "2.2.0",
	},
	"RPOPLPUSH": {
		summary:    "Returns the last element of a list after removing and pushing it to another list. Deletes the list if the last element was popped.",
		complexity: "O(1)",
		group:      "list",
		since:      "1.2.0",
	},
	"LMOVE": {
		summary:    "Returns an element after popping it from one list and pushing it to another. Deletes the list if the last element was moved.",
		complexity: "O(1)",
		group:      "list",
		since:      "6.2.0",
	},
	"BLPOP": {
		summary:    "Removes and returns the first element in a list. Blocks until an element is available otherwise. Deletes the list if the last element was popped.",
		complexity: "O(N) where N is the number of provided keys.",
		group:      "list",
		since:      "2.0.0",
	},
	"BRPOP": {
		summary:    "Removes and returns the last element in a list. Blocks until an element is available otherwise. Deletes the list if the last element was popped.",
		complexity: "O(N) where N is the number of provided keys.",
		group:      "list",
		since:      "2.0.0",
	},
	"BRPOPLPUSH": {
		summary:    "Pops an element from a list, pushes it to another list and returns it. Block until an element is available otherwise. Deletes the list if the last element was popped.",
		complexity: "O(1)",
		group:      "list",
		since:      "2.2.0",
	},
	"BLMOVE": {
		summary:    "Pops an element from a list, pushes it to another list and returns it. Blocks until an element is available otherwise. Deletes the list if the last element was moved.",
		complexity: "O(1)",
		group:      "list",
		since:      "6.2.0",
	},
	"HSET": {
		summary:    "Creates or modifies the value of a field in a hash.",
		complexity: "O(1) for each field/value pair added.",
		group:      "hash",
		since:      "2.0.0",
	},
	"HSETNX": {
		summary:    "Sets the value of a field in a hash only when the field doesn't exist.",
		complexity: "O(1)",
		group:      "hash",
		since:      "2.0.0",
	},
	"HMSET": {
		summary:    "Sets the values of multiple fields.",
		complexity: "O(N) where N is the number of fields being set.",
		group:      "hash",
		since:      "2.0.0",
	},
	"HGET": {
		summary:    "Returns the value of a field in a hash.",
		complexity: "O(1)",
		group:      "hash",
		since:      "2.0.0",
	},
	"HMGET": {
		summary:    "Returns the values of all fields in a hash.",
		complexity: "O(N) where N is the number of fields being requested.",
		group:      "hash",
		since:      "2.0.0",
	},
	"HGETALL": {
		summary:    "Returns all fields and values in a hash.",
		complexity: "O(N) where N is the size of the hash.",
		group:      "hash",
		since:      "2.0.0",
	},
	"HDEL": {
		summary:    "Deletes one or more fields and their values from a hash. Deletes the hash if no fields remain.",
		complexity: "O(N) where N is the number of fields to be removed.",
		group:      "hash",
		since:      "2.0.0",
	},
	"HEXISTS": {
		summary:    "Determines whether a field exists in a hash.",
		complexity: "O(1)",
		group:      "hash",
		since:      "2.0.0",
	},
	"HLEN": {
		summary:    "Returns the number of fields in a hash.",
		complexity: "O(1)",
		group:      "hash",
		since:      "2.0.0",
	},
	"HKEYS": {
		summary:    "Returns all fields in a hash.",
		complexity: "O(N) where N is the size of the hash.",
		group:      "hash",
		since:      "2.0.0",
	},
	"HVALS": {
		summary:    "Returns all values in a hash.",
		complexity: "O(N) where N is the size of the hash.",
		group:      "hash",
		since:      "2.0.0",
	},
	"HINCRBY": {
		summary:    "Increments the integer value of a field in a hash by a number. Uses 0 as initial value if the field doesn't exist.",
		complexity: "O(1)",
		group:      "hash",
		since:      "2.0.0",
	},
	"HINCRBYFLOAT": {
		summary:    "Increments the floating point value of a field by a number. Uses 0 as initial value if the field doesn't exist.",
		complexity: "O(1)",
		group:      "hash",
		since:      "2.6.0",
	},
	"SADD": {
		summary:    "Adds one or more members to a set. Creates the key if it doesn't exist.",
		complexity: "O(1) for each element added.",
		group:      "set",
		since:      "1.0.0",
	},
	"SREM": {
		summary:    "Removes one or more members from a set. Deletes the set if the last member was removed.",
		complexity: "O(N) where N is the number of members to be removed.",
		group:      "set",
		since:      "1.0.0",
	},
	"SISMEMBER": {
		summary:    "Determines whether a member belongs to a set.",
		complexity: "O(1)",
		group:      "set",
		since:      "1.0.0",
	},
	"SMEMBERS": {
		summary:    "Returns all members of a set.",
		complexity: "O(N) where N is the set cardinality.",
		group:      "set",
		since:      "1.0.0",
	},
	"SCARD": {
		summary:    "Returns the number of members in a set.",
		complexity: "O(1)",
		group:      "set",
		since:      "1.0.0",
	},
	"SPOP": {
		summary:    "Returns one or more random members from a set after removing them. Deletes the set if the last member was popped.",
		complexity: "O(N) where N is the value of the passed count.",
		group:      "set",
		since:      "1.0.0",
	},
	"SRANDMEMBER": {
		summary:    "Get one or multiple random members from a set",
		complexity: "O(N) where N is the absolute value of the passed count.",
		group:      "set",
		since:      "1.0.0",
	},
	"SMOVE": {
		summary:    "Moves a member from one set to another.",
		complexity: "O(1)",
		group:      "set",
		since:      "1.0.0",
	},
	"SINTER": {
		summary:    "Returns the intersect of multiple sets.",
		complexity: "O(N*M) worst case where N is the cardinality of the smallest set and M is the number of sets.",
		group:      "set",
		since:      "1.0.0",
	},
	"SUNION": {
		summary:    "Returns the union of multiple sets.",
		complexity: "O(N) where N is the total number of elements in all given sets.",
		group:      "set",
		since:      "1.0.0",
	},
	"SDIFF": {
		summary:    "Returns the difference of multiple sets.",
		complexity: "O(N) where N is the total number of elements in all given sets.",
		group:      "set",
		since:      "1.0.0",
	},
	"SINTERSTORE": {
		summary:    "Stores the intersect of multiple sets in a key.",
		complexity: "O(N*M) worst case where N is the cardinality of the smallest set and M is the number of sets.",
		group:      "set",
		since:      "1.0.0",
	},
	"SUNIONSTORE": {
		summary:    "Stores the union of multiple sets in a key.",
		complexity: "O(N) where N is the total number of elements in all given sets.",
		group:      "set",
		since:      "1.0.0",
	},
	"SDIFFSTORE": {
		summary:    "Stores the difference of multiple sets in a key.",
		complexity: "O(N) where N is the total number of elements in all given sets.",
		group:      "set",
		since:      "1.0.0",
	},
	"ZADD": {
		summary:    "Adds one or more members to a sorted set, or updates their scores. Creates the key if it doesn't exist.",
		complexity: "O(log(N)) for each item added, where N is the number of elements in the sorted set.",
		group:      "sorted-set",
		since:      "1.2.0",
	},
	"ZREM": {
		summary:    "Removes one or more members from a sorted set. Deletes the sorted set if all members were removed.",
		complexity: "O(M*log(N)) with N being the number of elements in the sorted set and M the number of elements to be removed.",
		group:      "sorted-set",
		since:      "1.2.0",
	},
	"ZSCORE": {
		summary:    "Returns the score of a member in a sorted set.",
		complexity: "O(1)",
		group:      "sorted-set",
		since:      "1.2.0",
	},
	"ZMSCORE": {
		summary:    "Returns the score of one or more members in a sorted set.",
		complexity: "O(N) where N is the number of members being requested.",
		group:      "sorted-set",
		since:      "6.2.0",
	},
	"ZINCRBY": {
		summary:    "Increments the score of a member in a sorted set.",
		complexity: "O(log(N)) where N is the number of elements in the sorted set.",
		group:      "sorted-set",
		since:      "1.2.0",
	},
	"ZCARD": {
		summary:    "Returns the number of members in a sorted set.",
		complexity: "O(1)",
		group:      "sorted-set",
		since:      "1.2.0",
	},
	"ZCOUNT": {
		summary:    "Returns the count of members in a sorted set that have scores within a range.",
		complexity: "O(log(N)) with N being the number of elements in the sorted set.",
		group:      "sorted-set",
		since:      "2.0.0",
	},
	"ZRANK": {
		summary:    "Returns the index of a member in a sorted set ordered by ascending scores.",
		complexity: "O(log(N))",
		group:      "sorted-set",
		since:      "2.0.0",
	},
	"ZREVRANK": {
		summary:    "Returns the index of a member in a sorted set ordered by descending scores.",
		complexity: "O(log(N))",
		group:      "sorted-set",
		since:      "2.0.0",
	},
	"ZRANGE": {
		summary:    "Returns members in a sorted set within a range of indexes.",
		complexity: "O(log(N)+M) with N being the number of elements in the sorted set and M the number of elements returned.",
		group:      "sorted-set",
		since:      "1.2.0",
	},
	"ZREVRANGE": {
		summary:    "Returns members in a sorted set within a range of indexes in reverse order.",
		complexity: "O(log(N)+M) with N being the number of elements in the sorted set and M the number of elements returned.",
		group:      "sorted-set",
		since:      "1.2.0",
	},
	"ZRANGEBYSCORE": {
		summary:    "Returns members in a sorted set within a range of scores.",
		complexity: "O(log(N)+M) with N being the number of elements in the sorted set and M the number of elements being returned.",
		group:      "sorted-set",
		since:      "1.0.5",
	},
	"ZREVRANGEBYSCORE": {
		summary:    "Returns members in a sorted set within a range of scores in reverse order.",
		complexity: "O(log(N)+M) with N being the number of elements in the sorted set and M the number of elements being returned.",
		group:      "sorted-set",
		since:      "2.2.0",
	},
	"ZREMRANGEBYRANK": {
		summary:    "Removes members in a sorted set within a range of indexes. Deletes the sorted set if all members were removed.",
		complexity: "O(log(N)+M) with N being the number of elements in the sorted set and M the number of elements removed by the operation.",
		group:      "sorted-set",
		since:      "2.0.0",
	},
	"ZREMRANGEBYSCORE": {
		summary:    "Removes members in a sorted set within a range of scores. Deletes the sorted set if all members were removed.",
		complexity: "O(log(N)+M) with N being the number of elements in the sorted set and M the number of elements removed by the operation.",
		group:      "sorted-set",
		since:      "1.2.0",
	},
	"ZPOPMIN": {
		summary:    "Returns the lowest-scoring members from a sorted set after removing them. Deletes the sorted set if the last member was popped.",
		complexity: "O(log(N)*M) with N being the number of elements in the sorted set, and M being the number of elements popped.",
		group:      "sorted-set",
		since:      "5.0.0",
	},
	"ZPOPMAX": {
		summary:    "Returns the highest-scoring members from a sorted set after removing them. Deletes the sorted set if the last member was popped.",
		complexity: "O(log(N)*M) with N being the number of elements in the sorted set, and M being the number of elements popped.",
		group:      "sorted-set",
		since:      "5.0.0",
	},
	"ZUNIONSTORE": {
		summary:    "Stores the union of multiple sorted sets in a key.",
		complexity: "O(N)+O(M log(M)) with N being the sum of the sizes of the input sorted sets, and M being the number of elements in the resulting sorted set.",
		group:      "sorted-set",
		since:      "2.0.0",
	},
	"ZINTERSTORE": {
		summary:    "Stores the intersect of multiple sorted sets in a key.",
		complexity: "O(N*K)+O(M*log(M)) worst case with N being the smallest input sorted set, K being the number of input sorted sets and M being the number of elements in the resulting sorted set.",
		group:      "sorted-set",
		since:      "2.0.0",
	},
	"ZDIFFSTORE": {
		summary:    "Stores the difference of multiple sorted sets in a key.",
		complexity: "O(L + (N-K)log(N)) worst case where L is the total number of elements in all the sets, N is the size of the first set, and K is the size of the result set.",
		group:      "sorted-set",
		since:      "6.2.0",
	},
	"WATCH": {
		summary:    "Monitors changes to keys to determine the execution of a transaction.",
		complexity: "O(1) for every key.",
		group:      "transactions",
		since:      "2.2.0",
	},
	"UNWATCH": {
		summary:    "Forgets about watched keys of a transaction.",
		complexity: "O(1)",
		group:      "transactions",
		since:      "2.2.0",
	},
	"MULTI": {
		summary:    "Starts a transaction.",
		complexity: "O(1)",
		group:      "transactions",
		since:      "1.2.0",
	},
	"EXEC": {
		summary:    "Executes all commands in a transaction.",
		complexity: "Depends on commands in the transaction",
		group:      "transactions",
		since:      "1.2.0",
	},
	"DISCARD": {
		summary:    "Discards a transaction.",
		complexity: "O(N), when N is the number of queued commands",
		group:      "transactions",
		since:      "2.0.0",
	},
	"PUBLISH": {
		summary:    "Posts a message to a channel.",
		complexity: "O(N+M) where N is the number of clients subscribed to the receiving channel and M is the total number of subscribed patterns (by any client).",
		group:      "pubsub",
		since:      "2.0.0",
	},
	"SUBSCRIBE": {
		summary:    "Listens for messages published to channels.",
		complexity: "O(N) where N is the number of channels to subscribe to.",
		group:      "pubsub",
		since:      "2.0.0",
	},
	"UNSUBSCRIBE": {
		summary:    "Stops listening to messages posted to channels.",
		complexity: "O(N) where N is the number of channels to unsubscribe.",
		group:      "pubsub",
		since:      "2.0.0",
	},
	"PSUBSCRIBE": {
		summary:    "Listens for messages published to channels that match one or more patterns.",
		complexity: "O(N) where N is the number of patterns to subscribe to.",
		group:      "pubsub",
		since:      "2.0.0",
	},
	"PUNSUBSCRIBE": {
		summary:    "Stops listening to messages published to channels that match one or more patterns.",
		complexity: "O(N) where N is the number of patterns to unsubscribe.",
		group:      "pubsub",
		since:      "2.0.0",
	},
	"PUBSUB": {
		summary:    "A container for Pub/Sub commands.",
		complexity: "Depends on subcommand.",
		group:      "pubsub",
		since:      "2.8.0",
	},
}

func makeFlagsArray(flags []string) resp.Value {
	vals := make([]resp.Value, len(flags))
	for i, f := range flags {
		vals[i] = resp.MakeSimpleString(f)
	}
	return resp.MakeArray(vals)
}

func makeInfoCmdArray(name string) []resp.Value {
	meta := commandRegistry[name]
	return []resp.Value{
		resp.MakeBulkString(strings.ToLower(name)),
		resp.MakeInteger(int64(meta.arity)),
		makeFlagsArray(meta.flags),
		resp.MakeInteger(int64(meta.firstKey)),
		resp.MakeInteger(int64(meta.lastKey)),
		resp.MakeInteger(int64(meta.step)),
	}
}

func sortedCommandNames() []string {
	names := make([]string, 0, len(commandRegistry))
	for name := range commandRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func getAllCommands() resp.Value {
	names := sortedCommandNames()
	cmdArray := make([]resp.Value, 0, len(names))
	for _, name := range names {
		cmdArray = append(cmdArray, resp.MakeArray(makeInfoCmdArray(name)))
	}
	return resp.MakeArray(cmdArray)
}

// getCommandsInfo returns details for the named commands, nil for unknown ones
func getCommandsInfo(args []resp.Value) resp.Value {
	out := make([]resp.Value, len(args))
	for i, arg := range args {
		name := argUpper(arg)
		if _, ok := commandRegistry[name]; !ok {
			out[i] = resp.MakeNilArray()
			continue
		}
		out[i] = resp.MakeArray(makeInfoCmdArray(name))
	}
	return resp.MakeArray(out)
}

// getCommandsDocs returns documentation for specified commands or all commands
// Format: [Name, [Summary, val, Since, val...], Name, [...]]
func getCommandsDocs(args []resp.Value) resp.Value {
	var targets []string

	if len(args) == 0 {
		targets = sortedCommandNames()
	} else {
		targets = make([]string, 0, len(args))
		for _, arg := range args {
			targets = append(targets, argUpper(arg))
		}
	}

	result := make([]resp.Value, 0, len(targets)*2)

	for _, name := range targets {
		doc, ok := commandDocsRegistry[name]
		if !ok {
			continue
		}

		result = append(result, resp.MakeBulkString(strings.ToLower(name)))

		props := []resp.Value{
			resp.MakeBulkString("summary"),
			resp.MakeBulkString(doc.summary),
			resp.MakeBulkString("since"),
			resp.MakeBulkString(doc.since),
			resp.MakeBulkString("group"),
			resp.MakeBulkString(doc.group),
			resp.MakeBulkString("complexity"),
			resp.MakeBulkString(doc.complexity),
		}

		result = append(result, resp.MakeArray(props))
	}

	return resp.MakeArray(result)
}
