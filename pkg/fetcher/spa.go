package fetcher

// SPARenderScript scrolls the page in steps and then clicks controls that
// look like "show more" expanders, so lazily rendered content is in the DOM
// before it is captured. Pair it with a wait of a few seconds.
const SPARenderScript = `
(() => {
  const scrollToBottom = () => window.scrollTo(0, document.body.scrollHeight);
  scrollToBottom();
  setTimeout(scrollToBottom, 1000);
  setTimeout(scrollToBottom, 2000);
  setTimeout(() => {
    const words = ['show', 'more', 'expand', 'load'];
    document.querySelectorAll('button, a, [role="button"]').forEach((el) => {
      const text = (el.innerText || '').toLowerCase();
      if (words.some((w) => text.includes(w))) {
        try { el.click(); } catch (e) {}
      }
    });
  }, 3000);
})();
`

// SPARenderWait is the default wait-for used with SPARenderScript.
const SPARenderWait = "5"
