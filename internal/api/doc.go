// Package api provides HTTP clients for the public A-share quote endpoints.
//
// EastMoney endpoints:
//   - Intraday trends: https://push2.eastmoney.com/api/qt/stock/trends2/get?secid=<m>.<code>
//   - History klines:  https://push2his.eastmoney.com/api/qt/stock/kline/get?secid=<m>.<code>
//
// Sina endpoint (alternative quote provider, GBK encoded):
//   - https://hq.sinajs.cn/list=<sz|sh><code>
//
// secid market prefixes: 0 = Shenzhen, 1 = Shanghai.
package api
